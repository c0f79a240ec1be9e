package main

import (
	"strconv"

	// keyboard for sim mode
	"github.com/nsf/termbox-go"
)

// keyEdit applies one key event to the digits typed so far. It returns the
// new buffer, a value when Enter completes a number, and whether to quit.
func keyEdit(buf string, ev termbox.Event) (string, *int64, bool) {
	switch ev.Key {
	case termbox.KeyCtrlC:
		return buf, nil, true
	case termbox.KeyEnter:
		if buf == "" || buf == "-" {
			return "", nil, false
		}
		v, err := strconv.ParseInt(buf, 10, 64)
		if err != nil {
			return "", nil, false
		}
		return "", &v, false
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		if len(buf) > 0 {
			buf = buf[:len(buf)-1]
		}
		return buf, nil, false
	}
	switch {
	case ev.Ch >= '0' && ev.Ch <= '9':
		buf += string(ev.Ch)
	case ev.Ch == '-' && buf == "":
		buf = "-"
	}
	return buf, nil, false
}

// runKeyboardOverride turns typed numbers into overrides. main interrupts
// the poll on the way out.
func runKeyboardOverride(rt runtimeConfig) {
	defer wg.Done()
	logger := &ThreadLogger{name: "Keyboard"}
	defer func() {
		logger.Println("Exiting runKeyboardOverride")
	}()

	if err := termbox.Init(); err != nil {
		logger.Printf("Error: %s", err.Error())
		return
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)

	buf := ""
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			var v *int64
			var quit bool
			buf, v, quit = keyEdit(buf, ev)
			if quit {
				logger.Println("Ctrl-C, quitting")
				rt.comms.stop()
				return
			}
			if v != nil {
				sendOverride(rt.comms.override, overrideMsg{value: *v, source: srcKeyboard})
			}
		case termbox.EventInterrupt:
			select {
			case <-rt.comms.quit:
				return
			default:
			}
		case termbox.EventError:
			logger.Printf("Error: %s", ev.Err.Error())
			return
		}
	}
}
