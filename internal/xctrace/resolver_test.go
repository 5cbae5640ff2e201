package xctrace

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readTables(t *testing.T, doc string) []*Table {
	t.Helper()
	tables, err := ReadTables(strings.NewReader(doc))
	require.NoError(t, err)
	return tables
}

func TestReadTables(t *testing.T) {
	tables := readTables(t, `<?xml version="1.0"?>
<trace-query-result>
<node xpath='//trace-toc[1]/run[1]/data[1]/table[1]'>
<schema name="core-animation-fps-estimate"><col><mnemonic>start</mnemonic></col></schema>
<row><start-time id="1" fmt="00:01.000">1000000000</start-time><fps id="2" fmt="60">60</fps></row>
<row><start-time ref="1"/><fps ref="2"/></row>
</node>
<node><schema name="sysmon-process"/></node>
</trace-query-result>`)

	require.Len(t, tables, 2)
	require.Equal(t, "core-animation-fps-estimate", tables[0].Schema)
	require.Len(t, tables[0].Rows, 2)
	require.Equal(t, 1, tables[0].Rows[1].Index)

	first := tables[0].Rows[0].Root
	require.Len(t, first.Children, 2)
	require.Equal(t, "start-time", first.Children[0].Tag)
	require.Equal(t, "1", first.Children[0].ID)
	require.Equal(t, "00:01.000", first.Children[0].Label())
	require.Equal(t, "1000000000", first.Children[0].Text)
	require.Equal(t, "2", tables[0].Rows[1].Root.Children[1].Ref)

	require.Equal(t, "sysmon-process", tables[1].Schema)
	require.Empty(t, tables[1].Rows)
}

func TestReadTables_Malformed(t *testing.T) {
	_, err := ReadTables(strings.NewReader(`<node><row><fps>1</fps>`))
	require.Error(t, err)
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath(".//size-in-bytes[3]")
	require.NoError(t, err)
	require.Equal(t, Nth("size-in-bytes", 3), p)
	require.Equal(t, ".//size-in-bytes[3]", p.String())

	p, err = ParsePath("fps")
	require.NoError(t, err)
	require.Equal(t, Tag("fps"), p)

	for _, bad := range []string{"", ".//", ".//a[0]", ".//a[x]", ".//a[2"} {
		_, err := ParsePath(bad)
		require.Error(t, err, bad)
	}
}

func TestResolver_BackReference(t *testing.T) {
	table := readTables(t, `<node><schema name="s"/>
<row><fps id="7">59</fps></row>
<row><fps ref="7"/></row>
</node>`)[0]

	r := NewResolver(nil, nil)
	r.BeginTable(table)
	for _, row := range table.Rows {
		r.Register(row)
		el, err := r.Resolve(row, fpsPath)
		require.NoError(t, err)
		require.Equal(t, "59", el.Text)
	}
}

func TestResolver_ForwardReference(t *testing.T) {
	table := readTables(t, `<node><schema name="s"/>
<row><start-time ref="1"/><fps>60</fps><start-time id="1" fmt="00:05.250">5250</start-time></row>
</node>`)[0]

	r := NewResolver(nil, nil)
	r.BeginTable(table)
	row := table.Rows[0]
	r.Register(row)

	el, err := r.Resolve(row, startTimePath)
	require.NoError(t, err)
	require.Equal(t, "00:05.250", el.Label())

	el, err = r.ResolveNth(row, "start-time", 1)
	require.NoError(t, err)
	require.Equal(t, "1", el.ID)
}

func TestResolver_PositionalSiblings(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<node><schema name="s"/><row>`)
	for i := 1; i <= 10; i++ {
		sb.WriteString("<size-in-bytes>")
		sb.WriteString(strings.Repeat("1", i))
		sb.WriteString("</size-in-bytes>")
	}
	sb.WriteString(`</row></node>`)
	table := readTables(t, sb.String())[0]

	r := NewResolver(nil, nil)
	r.BeginTable(table)
	row := table.Rows[0]
	r.Register(row)

	third, err := r.ResolveNth(row, "size-in-bytes", 3)
	require.NoError(t, err)
	ninth, err := r.ResolveNth(row, "size-in-bytes", 9)
	require.NoError(t, err)
	require.Equal(t, "111", third.Text)
	require.Equal(t, "111111111", ninth.Text)
	require.NotEqual(t, third.Text, ninth.Text)

	_, err = r.ResolveNth(row, "size-in-bytes", 11)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestResolver_PositionalReference(t *testing.T) {
	table := readTables(t, `<node><schema name="s"/>
<row><size-in-bytes id="1">10</size-in-bytes><size-in-bytes id="2">20</size-in-bytes></row>
<row><size-in-bytes ref="2"/><size-in-bytes ref="1"/></row>
</node>`)[0]

	r := NewResolver(nil, nil)
	r.BeginTable(table)
	for _, row := range table.Rows {
		r.Register(row)
	}
	el, err := r.ResolveNth(table.Rows[1], "size-in-bytes", 2)
	require.NoError(t, err)
	require.Equal(t, "10", el.Text)
}

func TestResolver_MissingReference(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	table := readTables(t, `<node><schema name="s"/>
<row><fps ref="99"/></row>
<row><fps ref="99"/><fps id="3">30</fps></row>
</node>`)[0]

	r := NewResolver(nil, zap.New(core))
	r.BeginTable(table)

	row := table.Rows[0]
	r.Register(row)
	_, err := r.Resolve(row, fpsPath)
	var mr *MissingReferenceError
	require.True(t, errors.As(err, &mr))
	require.Equal(t, "99", mr.Ref)
	require.Equal(t, 0, mr.Row)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "s", logs.All()[0].ContextMap()["schema"])

	// The first resolvable candidate wins over a dangling one.
	row = table.Rows[1]
	r.Register(row)
	el, err := r.Resolve(row, fpsPath)
	require.NoError(t, err)
	require.Equal(t, "30", el.Text)

	_, err = r.Resolve(row, Tag("gpu"))
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestResolver_BeginTableResetsCache(t *testing.T) {
	tables := readTables(t, `<trace-query-result>
<node><schema name="a"/><row><fps id="1">60</fps></row></node>
<node><schema name="b"/><row><fps ref="1"/></row></node>
</trace-query-result>`)

	cache := NewCache()
	r := NewResolver(cache, nil)

	r.BeginTable(tables[0])
	r.Register(tables[0].Rows[0])
	require.Equal(t, 1, cache.Len())

	r.BeginTable(tables[1])
	require.Equal(t, 0, cache.Len())
	r.Register(tables[1].Rows[0])
	_, err := r.Resolve(tables[1].Rows[0], fpsPath)
	var mr *MissingReferenceError
	require.True(t, errors.As(err, &mr))
	require.Equal(t, "b", mr.Schema)
}
