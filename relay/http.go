package relay

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	uerrors "mjpeg-toolkit/util/errors"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// ContextMiddleware replaces the request context with ctx. The HTTP server does
// not cancel in-flight requests on shutdown, so streaming endpoints use this
// to end with the server.
func ContextMiddleware(ctx context.Context, next http.HandlerFunc) http.HandlerFunc {
	if ctx == nil {
		return next
	}
	return func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req.WithContext(ctx))
	}
}

// MJPEGHandler re-serves published frames as a multipart/x-mixed-replace stream.
func (h *Hub) MJPEGHandler(w http.ResponseWriter, req *http.Request) {
	sub, err := h.Subscribe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	mimeWriter := multipart.NewWriter(w)
	defer mimeWriter.Close()
	w.Header().Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", mimeWriter.Boundary()))
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	partHeader := make(textproto.MIMEHeader, 1)
	partHeader.Add("Content-Type", "image/jpeg")

	ctx := req.Context()
	for {
		img, err := sub.GetFrame(ctx)
		if err != nil {
			return
		}
		partWriter, err := mimeWriter.CreatePart(partHeader)
		if err != nil {
			h.log.Errorf("Failed to create multi-part section: %v", err)
			return
		}
		if _, err := partWriter.Write(img); err != nil {
			if !uerrors.IsClientGone(err) {
				h.log.Errorf("Failed to write video frame: %v", err)
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// SnapshotHandler responds with the latest frame as a single JPEG.
func (h *Hub) SnapshotHandler(w http.ResponseWriter, _ *http.Request) {
	img := h.Latest()
	if img == nil {
		http.Error(w, "no frame available yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(img); err != nil && !uerrors.IsClientGone(err) {
		h.log.Errorf("Failed to write snapshot: %v", err)
	}
}

// WebSocketHandler pushes every frame as one binary websocket message.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, req *http.Request) {
	sub, err := h.Subscribe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.log.Debugf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	// Viewers never send anything; reading only notices them leaving
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		img, err := sub.GetFrame(ctx)
		if err != nil {
			if errors.Is(err, ErrNoFrames) {
				h.closeWebSocket(conn, websocket.CloseGoingAway, "stream ended")
			}
			return
		}
		if err := h.pushFrame(conn, img); err != nil {
			if uerrors.IsTimeout(err) {
				h.log.Warnf("Dropping slow viewer %d", sub.ID())
				return
			}
			if !uerrors.IsClientGone(err) && !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Failed to write video frame: %v", err)
			}
			return
		}
	}
}

// frameWriter is the part of *websocket.Conn used to push frames.
type frameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

func (h *Hub) pushFrame(conn frameWriter, img []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, img)
}

func (h *Hub) closeWebSocket(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteWait)); err != nil {
		h.log.Debugf("Failed to send close message: %v", err)
	}
}
