package lambda

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// Origin identifies the platform front door that produced an invocation.
// It selects the reply envelope shape.
type Origin int

const (
	OriginAPIGateway Origin = iota
	OriginHTTPAPI
	OriginLoadBalancer
)

func (o Origin) String() string {
	switch o {
	case OriginAPIGateway:
		return "API_GATEWAY"
	case OriginHTTPAPI:
		return "HTTP_API"
	case OriginLoadBalancer:
		return "LOAD_BALANCER"
	default:
		return "UNKNOWN"
	}
}

// Address families reported by Connection.RemoteFamily
const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

const (
	localAddress = "127.0.0.1"
	localPort    = 80
)

// Connection stands in for the network connection an HTTP request would have
// arrived on. It never performs I/O: reads see EOF and writes are discarded.
// One Connection belongs to exactly one invocation.
type Connection struct {
	local  *net.TCPAddr
	remote *net.TCPAddr
	origin Origin

	// address keeps the source IP as the platform sent it
	address string
	family  string
}

var _ net.Conn = (*Connection)(nil)

// NewConnection builds the connection for an HTTP event, taking the remote
// address from the event's source IP when it has a usable one.
func NewConnection(event HTTPEvent) *Connection {
	return newConnection(event.shape().SourceIP, event.Origin())
}

func newConnection(sourceIP string, origin Origin) *Connection {
	address := sourceIP
	ip := net.ParseIP(address)
	if ip == nil {
		address = localAddress
		ip = net.ParseIP(address)
	}
	// IPv4-mapped IPv6 literals stay IPv6
	family := FamilyIPv4
	if strings.Contains(address, ":") {
		family = FamilyIPv6
	}
	return &Connection{
		local:   &net.TCPAddr{IP: net.ParseIP(localAddress), Port: localPort},
		remote:  &net.TCPAddr{IP: ip, Port: localPort},
		address: address,
		family:  family,
		origin:  origin,
	}
}

// RemoteAddress returns the client IP as text
func (c *Connection) RemoteAddress() string { return c.address }

// remoteHostPort is the address and port as net/http reports RemoteAddr
func (c *Connection) remoteHostPort() string {
	return net.JoinHostPort(c.address, strconv.Itoa(c.remote.Port))
}

// RemoteFamily returns FamilyIPv4 or FamilyIPv6
func (c *Connection) RemoteFamily() string { return c.family }

// LocalAddress is always the loopback address
func (c *Connection) LocalAddress() string { return c.local.IP.String() }

// LocalPort is always 80
func (c *Connection) LocalPort() int { return c.local.Port }

// Encrypted is always true, TLS is terminated by the platform upstream
func (c *Connection) Encrypted() bool { return true }

// Origin returns the front door that produced the invocation
func (c *Connection) Origin() Origin { return c.origin }

// Dial always fails: a synthetic connection cannot open new connections
func (c *Connection) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	return nil, newAdapterError("dial", ErrNotSupported)
}

func (c *Connection) Read(b []byte) (int, error)         { return 0, io.EOF }
func (c *Connection) Write(b []byte) (int, error)        { return len(b), nil }
func (c *Connection) Close() error                       { return nil }
func (c *Connection) LocalAddr() net.Addr                { return c.local }
func (c *Connection) RemoteAddr() net.Addr               { return c.remote }
func (c *Connection) SetDeadline(t time.Time) error      { return nil }
func (c *Connection) SetReadDeadline(t time.Time) error  { return nil }
func (c *Connection) SetWriteDeadline(t time.Time) error { return nil }

type connectionKey struct{}

// ConnectionFromContext returns the Connection a request was dispatched on
func ConnectionFromContext(ctx context.Context) (*Connection, bool) {
	c, ok := ctx.Value(connectionKey{}).(*Connection)
	return c, ok
}

func contextWithConnection(ctx context.Context, c *Connection) context.Context {
	return context.WithValue(ctx, connectionKey{}, c)
}
