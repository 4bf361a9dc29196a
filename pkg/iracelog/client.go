// Package iracelog provides clients for the iracelog backend services.
package iracelog

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"buf.build/gen/go/mpapenbr/iracelog/connectrpc/go/iracelog/livedata/v1/livedatav1connect"
	"buf.build/gen/go/mpapenbr/iracelog/connectrpc/go/iracelog/track/v1/trackv1connect"
	commonv1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/common/v1"
	trackv1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/track/v1"
	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"golang.org/x/net/http2"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
)

var ErrTrackNotFound = errors.New("track not found")

type (
	Option func(*Client)
	Client struct {
		addr         string
		token        string
		telemetry    bool
		httpClient   *http.Client
		interceptors []connect.Interceptor
		l            *log.Logger
	}
)

// WithToken sets the api-token sent with every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTelemetry enables otel instrumentation of the client calls
func WithTelemetry(arg bool) Option {
	return func(c *Client) {
		c.telemetry = arg
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the iracelog server at addr.
// Plain http addresses are served via h2c.
func New(addr string, opts ...Option) *Client {
	ret := &Client{
		addr: addr,
		l:    log.Default().Named("iracelog"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.httpClient == nil {
		if strings.HasPrefix(addr, "http://") {
			ret.httpClient = newH2CClient()
		} else {
			ret.httpClient = http.DefaultClient
		}
	}
	if ret.telemetry {
		if otelInterceptor, err := otelconnect.NewInterceptor(); err == nil {
			ret.interceptors = append(ret.interceptors, otelInterceptor)
		} else {
			ret.l.Warn("could not create otel interceptor", log.ErrorField(err))
		}
	}
	if ret.token != "" {
		ret.interceptors = append(ret.interceptors, newTokenInterceptor(ret.token))
	}
	return ret
}

func (c *Client) clientOptions() []connect.ClientOption {
	return []connect.ClientOption{
		connect.WithGRPC(),
		connect.WithInterceptors(c.interceptors...),
	}
}

func (c *Client) LiveData() livedatav1connect.LiveDataServiceClient {
	return livedatav1connect.NewLiveDataServiceClient(
		c.httpClient, c.addr, c.clientOptions()...)
}

func (c *Client) Tracks() trackv1connect.TrackServiceClient {
	return trackv1connect.NewTrackServiceClient(
		c.httpClient, c.addr, c.clientOptions()...)
}

// FetchTrack returns the track with id.
func (c *Client) FetchTrack(ctx context.Context, id uint32) (*trackv1.Track, error) {
	tracks, err := c.FetchTracks(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if t.GetId().GetId() == id {
			return t, nil
		}
	}
	return nil, ErrTrackNotFound
}

func (c *Client) FetchTracks(ctx context.Context) ([]*trackv1.Track, error) {
	stream, err := c.Tracks().GetTracks(ctx,
		connect.NewRequest(&trackv1.GetTracksRequest{}))
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	ret := []*trackv1.Track{}
	for stream.Receive() {
		ret = append(ret, stream.Msg().Track)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	c.l.Debug("fetched tracks", log.Int("num", len(ret)))
	return ret, nil
}

// EventSelector selects an event by numeric id or by key.
func EventSelector(arg string) *commonv1.EventSelector {
	if id, err := strconv.Atoi(arg); err == nil {
		return &commonv1.EventSelector{Arg: &commonv1.EventSelector_Id{Id: int32(id)}}
	}
	return &commonv1.EventSelector{Arg: &commonv1.EventSelector_Key{Key: arg}}
}

func newH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(
				ctx context.Context, network, addr string, _ *tls.Config,
			) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
