package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"dscheirer.com/sonardisplay/gpio"
	"github.com/jonboulle/clockwork"
	"github.com/nsf/termbox-go"
)

var wg sync.WaitGroup

// sonardisplay -config={config file} [-sim]

func main() {
	settings, err := initSettings(os.Args[1:])
	if err != nil {
		log.Fatal(err.Error())
	}

	logFile, err := setupLogging(settings, !settings.GetBool(sKeyboard))
	if err != nil {
		log.Fatal(err.Error())
	}
	defer logFile.Close()

	log.Println(">>> Settings <<<")
	settings.Dump()
	log.Println(">>> Settings <<<")

	clock := clockwork.NewRealClock()
	bus, err := gpio.Open(settings.GetString(sGPIODriver), clock)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer bus.Close()
	if sim, ok := bus.(*gpio.Sim); ok {
		sim.Verbose(settings.GetBool(sGPIOVerbose))
	}

	rt, err := initRuntime(settings, clock, bus)
	if err != nil {
		log.Fatal(err.Error())
	}

	// ctrl-c and friends
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigs:
			log.Printf("Got %v, quitting", s)
			rt.comms.stop()
		case <-rt.comms.quit:
		}
	}()

	if name := settings.GetString(sSerialPort); name != "" {
		port, err := openSerial(settings)
		if err != nil {
			log.Fatal(err.Error())
		}
		if settings.GetBool(sSerialEcho) {
			rt.echo = port
		}
		wg.Add(1)
		go func() {
			// the reader notices quit within one read timeout
			defer port.Close()
			runSerialOverride(rt, port)
		}()
	}

	if settings.GetString(sHTTPAddr) != "" {
		wg.Add(1)
		go runAPIService(rt, &httpAPIService{})
	}

	if settings.GetBool(sKeyboard) {
		wg.Add(1)
		go runKeyboardOverride(rt)
		go func() {
			<-rt.comms.quit
			termbox.Interrupt()
		}()
	}

	wg.Add(1)
	go runSonar(rt)

	wg.Wait()
}
