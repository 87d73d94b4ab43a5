package netscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
	"golang.org/x/xerrors"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/layout"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/scanner"
	"netscan/infrastructure/symbol"
	"netscan/usecase/decode/decodetest"
)

func catalog(t *testing.T) *layout.Catalog {
	c, err := layout.Default()
	require.NoError(t, err)
	return c
}

func fixture(t *testing.T, name, tagSet string) *decodetest.Fixture {
	l, err := catalog(t).Get(name, tagSet)
	require.NoError(t, err)
	return decodetest.New(l)
}

type row struct {
	Protocol  entity.Protocol
	LocalAddr string
	LocalPort uint16
	State     string
	OwnerPID  entity.Field[uint64]
}

func rows(records []*entity.NetworkRecord) []row {
	out := make([]row, 0, len(records))
	for _, r := range records {
		out = append(out, row{r.Protocol, r.LocalAddr.String(), r.LocalPort, r.State.String(), r.OwnerPID})
	}
	return out
}

// win7Image holds one object of each kind plus a corrupt endpoint and a
// block with a foreign tag.
func win7Image(t *testing.T) *decodetest.Fixture {
	f := fixture(t, "win7 x64", constant.DefaultTagSet).Version(6, 1, 7601)
	system := f.Process(4, "System")
	svchost := f.Process(812, "svchost.exe")

	f.Pool(decodetest.Object{Kind: entity.TCPListener, Tag: "TcpL", Family: constant.AFInet6, Port: 445, Owner: system})
	f.Pool(decodetest.Object{Kind: entity.TCPEndpoint, Tag: "TcpE", Family: constant.AFInet, State: 1,
		Local: decodetest.InAddr("10.0.0.2"), Remote: decodetest.InAddr("10.0.0.9"), LocalPort: 49158, RemotePort: 139, Owner: svchost})
	f.Pool(decodetest.Object{Kind: entity.TCPEndpoint, Tag: "TcpE", Family: constant.AFInet, State: 0xFF,
		Local: decodetest.InAddr("10.0.0.2"), Remote: decodetest.InAddr("10.0.0.9"), LocalPort: 49159, RemotePort: 139, Owner: svchost})
	f.PoolBlock("Ntfx", 1, make([]byte, 0x100))
	f.Pool(decodetest.Object{Kind: entity.UDPEndpoint, Tag: "UdpA", Family: constant.AFInet, Local: decodetest.InAddr("10.0.0.2"), Port: 137, Owner: system, Slack: 0x18})
	return f
}

func TestNetScan_Scan(t *testing.T) {
	tests := []struct {
		name           string
		includeCorrupt bool
		want           []row
	}{
		{
			name: "Strict.",
			want: []row{
				{entity.TCPv4, "0.0.0.0", 445, "LISTENING", entity.Present(uint64(4))},
				{entity.TCPv6, "::", 445, "LISTENING", entity.Present(uint64(4))},
				{entity.TCPv4, "10.0.0.2", 49158, "LISTENING", entity.Present(uint64(812))},
				{entity.UDPv4, "10.0.0.2", 137, "", entity.Present(uint64(4))},
			},
		},
		{
			name:           "Permissive keeps the corrupt endpoint.",
			includeCorrupt: true,
			want: []row{
				{entity.TCPv4, "0.0.0.0", 445, "LISTENING", entity.Present(uint64(4))},
				{entity.TCPv6, "::", 445, "LISTENING", entity.Present(uint64(4))},
				{entity.TCPv4, "10.0.0.2", 49158, "LISTENING", entity.Present(uint64(812))},
				{entity.TCPv4, "10.0.0.2", 49159, "N/A", entity.Present(uint64(812))},
				{entity.UDPv4, "10.0.0.2", 137, "", entity.Present(uint64(4))},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := win7Image(t)
			stream, err := New(f.Layer(), f.Symbols, catalog(t), log.Nop(), Options{IncludeCorrupt: tt.includeCorrupt}).Scan()
			require.NoError(t, err)

			assert.Equal(t, "win7 x64", stream.Layout().Name)
			assert.Equal(t, &entity.OsVersionProfile{Major: 6, Minor: 1, Build: 7601, Architecture: entity.X64}, stream.Profile())

			records, err := stream.Collect()
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows(records))
		})
	}
}

func TestNetScan_ScanWin10Extended(t *testing.T) {
	f := fixture(t, "win10 15063 x64", constant.ExtendedTagSet).Version(10, 0, 17134)
	owner := f.Process(2020, "msedge.exe")
	f.Pool(decodetest.Object{Kind: entity.TCPEndpoint, Tag: "TTcb", Family: constant.AFInet, State: 4,
		Local: decodetest.InAddr("192.168.56.10"), Remote: decodetest.InAddr("13.107.4.50"), LocalPort: 50123, RemotePort: 443, Owner: owner})
	f.Pool(decodetest.Object{Kind: entity.UDPEndpoint, Tag: "UdpA", Family: constant.AFInet6, Local: decodetest.InAddr("fe80::1"), Port: 546, Owner: owner})

	stream, err := New(f.Layer(), f.Symbols, catalog(t), log.Nop(), Options{}).Scan()
	require.NoError(t, err)
	records, err := stream.Collect()
	require.NoError(t, err)

	assert.Equal(t, []row{
		{entity.TCPv4, "192.168.56.10", 50123, "ESTABLISHED", entity.Present(uint64(2020))},
		{entity.UDPv6, "fe80::1", 546, "", entity.Present(uint64(2020))},
	}, rows(records))
	assert.Equal(t, entity.Present("13.107.4.50"), records[0].RemoteAddr)
}

func TestNetScan_ScanFatal(t *testing.T) {
	tests := []struct {
		name    string
		layer   func(f *decodetest.Fixture) memory.Layer
		symbols func(f *decodetest.Fixture) symbol.Resolver
		major   uint32
		wantErr error
	}{
		{
			name:    "Physical layer.",
			layer:   func(f *decodetest.Fixture) memory.Layer { return f.Image.WithKind(memory.Physical).Layer() },
			major:   6,
			wantErr: constant.ErrLayerTypeMismatch,
		},
		{
			name:    "No KdVersionBlock.",
			symbols: func(f *decodetest.Fixture) symbol.Resolver { return &symbol.File{} },
			major:   6,
			wantErr: constant.ErrSymbolUnavailable,
		},
		{
			name:    "Unknown version.",
			major:   5,
			wantErr: constant.ErrUnknownVersion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixture(t, "win7 x64", constant.DefaultTagSet).Version(tt.major, 1, 7601)
			var layer memory.Layer = f.Layer()
			if tt.layer != nil {
				layer = tt.layer(f)
			}
			var symbols symbol.Resolver = f.Symbols
			if tt.symbols != nil {
				symbols = tt.symbols(f)
			}

			stream, err := New(layer, symbols, catalog(t), log.Nop(), Options{}).Scan()
			assert.Nil(t, stream)
			assert.True(t, xerrors.Is(err, tt.wantErr), "err = %v", err)
		})
	}
}

type sliceDriver struct {
	candidates []*valueobject.Candidate
	err        error
	scanned    []*entity.PoolConstraint
}

func (d *sliceDriver) Scan(constraints []*entity.PoolConstraint) scanner.Iterator {
	d.scanned = constraints
	return &sliceIterator{driver: d}
}

type sliceIterator struct {
	driver *sliceDriver
	pos    int
	pulled int
}

func (it *sliceIterator) Next() (*valueobject.Candidate, bool) {
	if it.pos >= len(it.driver.candidates) {
		return nil, false
	}
	it.pos++
	it.pulled++
	return it.driver.candidates[it.pos-1], true
}

func (it *sliceIterator) Err() error {
	if it.pos >= len(it.driver.candidates) {
		return it.driver.err
	}
	return nil
}

func TestStream_IsLazy(t *testing.T) {
	f := fixture(t, "win7 x64", constant.DefaultTagSet).Version(6, 1, 7601)
	system := f.Process(4, "System")
	l := f.Layout
	constraintFor := func(tag string, kind entity.RecordKind) *entity.PoolConstraint {
		c := &entity.PoolConstraint{Kind: kind, MinSize: l.Kind(kind).Size}
		copy(c.Tag[:], tag)
		return c
	}
	udp := f.Raw(decodetest.Object{Kind: entity.UDPEndpoint, Family: constant.AFInet6, Port: 53, Owner: system})
	driver := &sliceDriver{
		candidates: []*valueobject.Candidate{
			{Offset: 0x1000, Raw: udp, Constraint: constraintFor("UdpA", entity.UDPEndpoint)},
			{Offset: 0x2000, Raw: udp, Constraint: constraintFor("UdpA", entity.UDPEndpoint)},
		},
		err: scanner.ErrNotEnumerable,
	}

	stream, err := New(f.Layer(), f.Symbols, catalog(t), log.Nop(), Options{Driver: driver}).Scan()
	require.NoError(t, err)
	require.Len(t, driver.scanned, 3)
	it := stream.candidates.(*sliceIterator)

	require.True(t, stream.Next())
	assert.Equal(t, uint64(0x1000), stream.Record().Offset)
	assert.Equal(t, 1, it.pulled)
	require.True(t, stream.Next())
	assert.Equal(t, uint64(0x1000), stream.Record().Offset)
	assert.Equal(t, 1, it.pulled)
	require.True(t, stream.Next())
	assert.Equal(t, uint64(0x2000), stream.Record().Offset)
	assert.Equal(t, 2, it.pulled)
	require.True(t, stream.Next())

	assert.False(t, stream.Next())
	assert.Nil(t, stream.Record())
	assert.True(t, xerrors.Is(stream.Err(), scanner.ErrNotEnumerable))
}

func TestNetScan_ScanLogsScanID(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	f := win7Image(t)

	stream, err := New(f.Layer(), f.Symbols, catalog(t), log.NewZapLogger(zap.New(core)), Options{}).Scan()
	require.NoError(t, err)
	_, err = stream.Collect()
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, stream.ID(), entry.ContextMap()["scan_id"])
	}
	assert.NotZero(t, logs.FilterMessageSnippet("invalid tcp state").Len())
	assert.NotZero(t, logs.FilterMessageSnippet("scanning").Len())
}
