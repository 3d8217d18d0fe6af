//go:build !debug
// +build !debug

package utils

import "github.com/ashpect/ttlstore/pkg/log"

func Debug(_ string, _ ...interface{}) {}

func Log(format string, args ...interface{}) {
	log.S().Infof(format, args...)
}
