package render

import (
	"fmt"
	"io"
)

const DefaultFormat = "png"

var defaultOptions = Options{Format: DefaultFormat}

type Options struct {
	Format  string
	Retries int
}

type Server struct {
	opts *Options
}

func NewServer(opts *Options) *Server {
	return &Server{opts: opts}
}

func (s *Server) Render(w io.Writer, token string) error {
	_, err := fmt.Fprintf(w, "%s/%s", s.opts.Format, token)
	return err
}
