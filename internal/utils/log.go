// Package utils
package utils

import (
	"log"
	"os"
	"sync"
)

// LogPathEnv overrides the log file location.
const LogPathEnv = "SIMPLE_TA_LOG"

const defaultLogPath = "simple-ta.log"

var (
	logger *log.Logger
	once   sync.Once
)

// LogPath returns the file GetLogger writes to.
func LogPath() string {
	if p := os.Getenv(LogPathEnv); p != "" {
		return p
	}
	return defaultLogPath
}

func GetLogger() *log.Logger {
	once.Do(func() {
		file, err := os.OpenFile(LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		logger = log.New(file, "Simple TA: ", log.LstdFlags)
	})
	return logger
}
