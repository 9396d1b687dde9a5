package logging

import "fmt"

// Printf logs at Info, so a Logger can be handed to code expecting a
// Printf-style logger.
func (log *Logger) Printf(format string, v ...interface{}) {
	log.Log(Info, 1, format, v...)
}

// Panicf is for programmer errors that would leave a session inconsistent.
func (log *Logger) Panicf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Log(Error, 1, "%s", msg)
	panic(msg)
}
