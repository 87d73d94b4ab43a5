package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/infrastructure/layout"
	"netscan/infrastructure/log"
	implprocess "netscan/infrastructure/repository/impl/process"
	"netscan/usecase/decode/decodetest"
)

func fixture(t *testing.T, name, tagSet string) *decodetest.Fixture {
	catalog, err := layout.Default()
	require.NoError(t, err)
	l, err := catalog.Get(name, tagSet)
	require.NoError(t, err)
	return decodetest.New(l)
}

func decoder(t *testing.T, f *decodetest.Fixture) *Decoder {
	processes, err := implprocess.NewProcessRepository(f.Layer(), f.Symbols, log.Nop())
	require.NoError(t, err)
	return NewDecoder(f.Layer(), processes)
}

func TestDecoder_LocalAddress(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		tagSet string
		object decodetest.Object
		want   entity.Field[string]
	}{
		{
			name:   "Bound IPv4 listener.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPListener, Family: constant.AFInet, Local: decodetest.InAddr("192.168.1.10")},
			want:   entity.Present("192.168.1.10"),
		},
		{
			name:   "Unbound listener.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPListener, Family: constant.AFInet6},
			want:   entity.Absent[string](),
		},
		{
			name:   "Bound IPv6 UDP endpoint on x86.",
			layout: "win7 x86",
			object: decodetest.Object{Kind: entity.UDPEndpoint, Family: constant.AFInet6, Local: decodetest.InAddr("fe80::1")},
			want:   entity.Present("fe80::1"),
		},
		{
			name:   "Windows 10 x64 UDP endpoints use a single indirection.",
			layout: "win10 15063 x64",
			tagSet: constant.ExtendedTagSet,
			object: decodetest.Object{Kind: entity.UDPEndpoint, Family: constant.AFInet, Local: decodetest.InAddr("10.0.0.5")},
			want:   entity.Present("10.0.0.5"),
		},
		{
			name:   "TCP endpoint.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint, Family: constant.AFInet, Local: decodetest.InAddr("10.1.2.3"), Remote: decodetest.InAddr("93.184.216.34")},
			want:   entity.Present("10.1.2.3"),
		},
		{
			name:   "TCP endpoint without local address.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint, Family: constant.AFInet},
			want:   entity.Unreadable[string](),
		},
		{
			name:   "Listener whose pData points at unmapped memory.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPListener, Family: constant.AFInet, DanglingPData: 0xfffffa80deadb000},
			want:   entity.Unreadable[string](),
		},
		{
			name:   "Windows 10 x64 UDP endpoint whose pData points at unmapped memory.",
			layout: "win10 15063 x64",
			tagSet: constant.ExtendedTagSet,
			object: decodetest.Object{Kind: entity.UDPEndpoint, Family: constant.AFInet, DanglingPData: 0xfffffa80deadb000},
			want:   entity.Unreadable[string](),
		},
		{
			name:   "Unknown family.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPListener, Family: 0x99, Local: decodetest.InAddr("10.0.0.1")},
			want:   entity.Unreadable[string](),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tagSet := tt.tagSet
			if tagSet == "" {
				tagSet = constant.DefaultTagSet
			}
			f := fixture(t, tt.layout, tagSet)
			record := f.Record(tt.object)
			d := decoder(t, f)

			family, err := d.AddressFamily(record)
			require.NoError(t, err)
			assert.Equal(t, tt.object.Family, family)
			assert.Equal(t, tt.want, d.LocalAddress(record, family))
		})
	}
}

func TestDecoder_RemoteAddress(t *testing.T) {
	f := fixture(t, "win8 x64", constant.DefaultTagSet)
	withRemote := f.Record(decodetest.Object{Kind: entity.TCPEndpoint, Family: constant.AFInet6, Local: decodetest.InAddr("::1"), Remote: decodetest.InAddr("::ffff:10.0.0.1")})
	withoutRemote := f.Record(decodetest.Object{Kind: entity.TCPEndpoint, Family: constant.AFInet6, Local: decodetest.InAddr("::1")})
	d := decoder(t, f)

	assert.Equal(t, entity.Present("::ffff:10.0.0.1"), d.RemoteAddress(withRemote, constant.AFInet6))
	assert.Equal(t, entity.Unreadable[string](), d.RemoteAddress(withoutRemote, constant.AFInet6))
}

func TestDecoder_AddressFamilyUnreadable(t *testing.T) {
	f := fixture(t, "win7 x64", constant.DefaultTagSet)
	record := f.Record(decodetest.Object{Kind: entity.UDPEndpoint})

	_, err := decoder(t, f).AddressFamily(record)
	assert.Error(t, err)
}

func TestDecoder_Owner(t *testing.T) {
	f := fixture(t, "win7 x64", constant.DefaultTagSet)
	owner := f.Process(4240, "chrome.exe")
	owned := f.Record(decodetest.Object{Kind: entity.UDPEndpoint, Owner: owner})
	orphan := f.Record(decodetest.Object{Kind: entity.UDPEndpoint})
	dangling := f.Record(decodetest.Object{Kind: entity.UDPEndpoint, Owner: 0xfffffa80deadb000})
	d := decoder(t, f)

	proc, err := d.Owner(owned)
	require.NoError(t, err)
	assert.Equal(t, uint64(4240), proc.Pid)
	assert.Equal(t, "chrome.exe", proc.ImageFileName)

	proc, err = d.Owner(orphan)
	assert.NoError(t, err)
	assert.Nil(t, proc)

	_, err = d.Owner(dangling)
	assert.Error(t, err)
}

func TestDecoder_CreatedAt(t *testing.T) {
	created := time.Date(2011, 4, 12, 8, 30, 0, 0, time.UTC)
	wintime := uint64(created.Unix())*10000000 + 116444736000000000

	tests := []struct {
		name   string
		layout string
		object decodetest.Object
		want   entity.Field[time.Time]
	}{
		{
			name:   "Plausible time.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint, CreateTime: wintime},
			want:   entity.Present(created),
		},
		{
			name:   "Zero time.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint},
			want:   entity.Absent[time.Time](),
		},
		{
			name:   "Year 1601 is implausible.",
			layout: "win7 x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint, CreateTime: 1},
			want:   entity.Unreadable[time.Time](),
		},
		{
			name:   "Vista endpoints carry no creation time.",
			layout: "vista x64",
			object: decodetest.Object{Kind: entity.TCPEndpoint, CreateTime: wintime},
			want:   entity.Absent[time.Time](),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixture(t, tt.layout, constant.DefaultTagSet)
			record := f.Record(tt.object)
			assert.Equal(t, tt.want, decoder(t, f).CreatedAt(record))
		})
	}
}
