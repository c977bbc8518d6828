package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
)

// DefaultPort used for addresses without explicit port
const DefaultPort = "21"

// FTPDialer makes anonymous plain ftp connections
type FTPDialer struct {
	Timeout time.Duration
}

// Dial connects to addr (host or host:port) and logs in as anonymous
func (d FTPDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if d.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(d.Timeout))
	}
	c, err := ftp.Dial(HostPort(addr), opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Login("anonymous", "anonymous"); err != nil {
		_ = c.Quit()
		return nil, fmt.Errorf("anonymous login: %w", err)
	}
	return &ftpConn{c: c}, nil
}

// HostPort adds the default ftp port to addr if it has none
func HostPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, DefaultPort)
}

type ftpConn struct {
	c *ftp.ServerConn
}

func (f *ftpConn) NameList(path string) ([]string, error) { return f.c.NameList(path) }

func (f *ftpConn) Retr(path string) (io.ReadCloser, error) {
	r, err := f.c.Retr(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (f *ftpConn) Quit() error { return f.c.Quit() }
