package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// reads return empty this often so the reader can notice quit
const serialReadTimeout = 100 * time.Millisecond

func openSerial(settings *configSettings) (io.ReadWriteCloser, error) {
	name := settings.GetString(sSerialPort)
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        settings.GetInt(sSerialBaud),
		ReadTimeout: serialReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port '%s'", name)
	}
	return port, nil
}

// parseSerialInt pulls the first integer out of a line: anything before a
// digit or a '-' directly ahead of one is skipped.
func parseSerialInt(line string) (int64, bool) {
	start := -1
	for i := 0; i < len(line); i++ {
		c := line[i]
		if isDigit(c) {
			start = i
			break
		}
		if c == '-' && i+1 < len(line) && isDigit(line[i+1]) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start + 1
	for end < len(line) && isDigit(line[end]) {
		end++
	}
	v, err := strconv.ParseInt(line[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// quitReader treats an empty read (the port's read timeout) as a chance to
// check quit, and only reports io.EOF once quit has closed.
type quitReader struct {
	r    io.Reader
	quit chan struct{}
}

func (q *quitReader) Read(b []byte) (int, error) {
	for {
		n, err := q.r.Read(b)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		select {
		case <-q.quit:
			return 0, io.EOF
		default:
		}
	}
}

// runSerialOverride reads lines from port until quit or a read error,
// queueing every integer it finds as an override.
func runSerialOverride(rt runtimeConfig, port io.ReadWriter) {
	defer wg.Done()
	logger := &ThreadLogger{name: "Serial"}
	defer func() {
		logger.Println("Exiting runSerialOverride")
	}()

	scanner := bufio.NewScanner(&quitReader{r: port, quit: rt.comms.quit})
	for scanner.Scan() {
		v, ok := parseSerialInt(scanner.Text())
		if !ok {
			continue
		}
		logger.Printf("Received serial input: %d", v)
		if _, err := fmt.Fprintf(port, "Received serial input: %d\r\n", v); err != nil {
			logger.Printf("Error: %s", err.Error())
		}
		sendOverride(rt.comms.override, overrideMsg{value: v, source: srcSerial})
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-rt.comms.quit:
			// closed under us on the way out
		default:
			logger.Printf("Error: %s", err.Error())
		}
	}
}
