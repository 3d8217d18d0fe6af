//go:build debug
// +build debug

package utils

import "github.com/ashpect/ttlstore/pkg/log"

func Debug(format string, args ...interface{}) {
	log.S().Debugf("[DEBUG] "+format, args...)
}

func Log(format string, args ...interface{}) {
	log.S().Infof(format, args...)
}
