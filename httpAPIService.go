package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type httpAPIService struct {
	srv *http.Server
}

func (h *httpAPIService) launch(handler *apiHandler, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on '%s'", addr)
	}
	h.srv = &http.Server{Handler: handler.router()}

	// add to the wg
	wg.Add(1)

	go func() {
		defer wg.Done()
		err := h.srv.Serve(ln)
		if err != http.ErrServerClosed {
			log.Print(err)
		}
		log.Print("Exiting API http server")
	}()
	return nil
}

func (h *httpAPIService) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h.srv.Shutdown(ctx)
}
