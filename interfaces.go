package main

import "dscheirer.com/sonardisplay/hcsr04"

type rangefinder interface {
	Distance(w hcsr04.Waiter) (int64, error)
}

type overrideService interface {
	launch(handler *apiHandler, addr string) error
	stop()
}
