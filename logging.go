package main

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

type flogger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// ThreadLogger tags each line with the worker that wrote it.
type ThreadLogger struct {
	name string
}

func (tl *ThreadLogger) Printf(format string, v ...interface{}) {
	log.Printf("["+tl.name+"] "+format, v...)
}

func (tl *ThreadLogger) Println(v ...interface{}) {
	log.Println(append([]interface{}{"[" + tl.name + "]"}, v...)...)
}

// setupLogging sends the log to a rotated file, and to stdout as well when
// echo is set.
func setupLogging(settings *configSettings, echo bool) (io.Closer, error) {
	name := settings.GetString(sLogFile)
	if name == "" {
		return nil, errors.Errorf("%s is not set", sLogFile)
	}
	lj := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	var w io.Writer = lj
	if echo {
		w = io.MultiWriter(os.Stdout, lj)
	}
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return lj, nil
}
