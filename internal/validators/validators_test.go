package validators

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHHMM(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	type window struct {
		Start string `validate:"hhmm"`
	}

	for _, ok := range []string{"", "00:00", "09:30", "23:59", "24:00"} {
		assert.NoError(t, v.Struct(window{Start: ok}), ok)
	}
	for _, bad := range []string{"9:30", "25:00", "12:60", "noon", "12:30:00"} {
		assert.Error(t, v.Struct(window{Start: bad}), bad)
	}
}

type fakeResolver struct {
	mx  map[string]bool
	ips map[string]bool
}

func (f fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if f.mx[name] {
		return []*net.MX{{Host: "mx." + name}}, nil
	}
	return nil, errors.New("no mx")
}

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if f.ips[host] {
		return []net.IPAddr{{IP: net.IPv4(127, 0, 0, 1)}}, nil
	}
	return nil, errors.New("no host")
}

func TestIsEmailDomainValid(t *testing.T) {
	r := fakeResolver{
		mx:  map[string]bool{"mail.test": true},
		ips: map[string]bool{"host.test": true},
	}
	ctx := context.Background()

	assert.True(t, IsEmailDomainValid(ctx, r, "a@mail.test"))
	assert.True(t, IsEmailDomainValid(ctx, r, "a@host.test"))
	assert.False(t, IsEmailDomainValid(ctx, r, "a@nowhere.test"))
	assert.False(t, IsEmailDomainValid(ctx, r, "no-at-sign"))
	assert.False(t, IsEmailDomainValid(ctx, r, "trailing@"))
}
