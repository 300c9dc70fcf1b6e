package mocks

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"sync/atomic"
	"time"
)

// Camera is an http.Handler emulating an IP camera MJPEG endpoint.
type Camera struct {
	// Frames written once per request, in order
	Frames [][]byte
	// Multipart boundary. A random one is used when empty.
	Boundary string
	// Overrides the Content-Type header verbatim when set
	ContentType string
	// Response status, 200 when zero
	Status int
	// Keep repeating Frames until the client goes away
	Loop bool
	// Delay between frames
	Interval time.Duration
	// Keep the response open after the last frame until the client goes away
	Hold bool

	requests atomic.Int32
	active   atomic.Int32

	mu     sync.Mutex
	served []string
}

var _ http.Handler = (*Camera)(nil)

func (c *Camera) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c.requests.Add(1)
	c.active.Add(1)
	defer c.active.Add(-1)

	c.mu.Lock()
	c.served = append(c.served, req.Header.Get("Authorization"))
	c.mu.Unlock()

	mimeWriter := multipart.NewWriter(w)
	if c.Boundary != "" {
		if err := mimeWriter.SetBoundary(c.Boundary); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	contentType := c.ContentType
	if contentType == "" {
		contentType = fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", mimeWriter.Boundary())
	}
	w.Header().Set("Content-Type", contentType)
	if c.Status != 0 {
		w.WriteHeader(c.Status)
		if c.Status >= http.StatusMultipleChoices {
			return
		}
	}
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	partHeader := make(textproto.MIMEHeader, 1)
	partHeader.Add("Content-Type", "image/jpeg")

	ctx := req.Context()
	for {
		for _, img := range c.Frames {
			if ctx.Err() != nil {
				return
			}
			partWriter, err := mimeWriter.CreatePart(partHeader)
			if err != nil {
				return
			}
			if _, err := partWriter.Write(img); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			if c.Interval > 0 {
				select {
				case <-time.After(c.Interval):
				case <-ctx.Done():
					return
				}
			}
		}
		if !c.Loop {
			break
		}
	}
	if c.Hold {
		<-ctx.Done()
		return
	}
	_ = mimeWriter.Close()
}

func (c *Camera) Requests() int {
	return int(c.requests.Load())
}

// Active returns the number of responses still being written.
func (c *Camera) Active() int {
	return int(c.active.Load())
}

func (c *Camera) Authorizations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.served...)
}
