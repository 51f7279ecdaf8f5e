package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

func testApp(t *testing.T) *App {
	t.Helper()
	app, err := New(&config.Config{
		Service:       config.ServiceFilms,
		HTTPAddr:      "127.0.0.1:0",
		Log:           utilities.Config{Level: "error"},
		SnowflakeNode: 3,
	})
	require.NoError(t, err)
	return app
}

func TestServeUntilCancelled(t *testing.T) {
	app := testApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "hi")
		}))
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "hi", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownGrace + time.Second):
		t.Fatal("server did not stop")
	}
	app.Close()
}

func TestNewRejectsBadNode(t *testing.T) {
	_, err := New(&config.Config{Service: config.ServiceFilms, SnowflakeNode: 5000})
	assert.Error(t, err)
}
