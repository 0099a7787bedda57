package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modcalc/fec"
	"modcalc/host"
	"modcalc/modulation"
)

type recorder struct {
	calls []string
}

func (r *recorder) Recomputed(variant string, ok bool) {
	status := "ok"
	if !ok {
		status = "invalid"
	}
	r.calls = append(r.calls, variant+":"+status)
}

func TestNewSessionDefaults(t *testing.T) {
	s := host.NewSession("")
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "BPSK", s.Variant().Name)

	snap := s.Snapshot()
	assert.Equal(t, "BPSK", snap.Variant)
	assert.Equal(t, "0.00 bits/s", snap.DataRate)
	assert.Equal(t, "*                *", snap.Diagram)
	assert.Empty(t, snap.InformationRate)
	require.Len(t, snap.Fields, 1)
	assert.Equal(t, host.FieldState{Key: "rate", Label: "Modulation Rate (symbols/s):", Value: "0"}, snap.Fields[0])
}

func TestNewSessionUnknownFallsBack(t *testing.T) {
	s := host.NewSession("OOK", host.WithID("fixed"))
	assert.Equal(t, "fixed", s.ID())
	assert.Equal(t, "BPSK", s.Variant().Name)
}

func TestLiveRecompute(t *testing.T) {
	s := host.NewSession("BPSK")

	require.NoError(t, s.Set("rate", "1"))
	assert.Equal(t, "1.00 bits/s", s.DataRate())
	require.NoError(t, s.Set("rate", "10"))
	assert.Equal(t, "10.00 bits/s", s.DataRate())
	require.NoError(t, s.Set("rate", "100"))
	assert.Equal(t, "100.00 bits/s", s.DataRate())
	require.NoError(t, s.Set("rate", "100a"))
	assert.Equal(t, "Invalid input", s.DataRate())

	v, ok := s.Value("rate")
	assert.True(t, ok)
	assert.Equal(t, "100a", v)
}

func TestSelectResetsInputs(t *testing.T) {
	s := host.NewSession("BPSK")
	require.NoError(t, s.Set("rate", "100"))

	require.NoError(t, s.Select("QPSK"))
	assert.Equal(t, "QPSK", s.Snapshot().Variant)
	assert.Equal(t, "0.00 bits/s", s.DataRate())
	assert.Equal(t, "    *\n*       *\n    *", s.Diagram())

	require.NoError(t, s.Set("rate", "100"))
	assert.Equal(t, "200.00 bits/s", s.DataRate())

	// Reselecting the same variant also starts over.
	require.NoError(t, s.Select("QPSK"))
	assert.Equal(t, "0.00 bits/s", s.DataRate())
}

func TestFSKBindsDeviation(t *testing.T) {
	s := host.NewSession("BPSK")
	err := s.Set("deviation", "500")
	require.ErrorIs(t, err, host.ErrUnboundField)

	require.NoError(t, s.Select("FSK"))
	snap := s.Snapshot()
	require.Len(t, snap.Fields, 2)
	assert.Equal(t, "deviation", snap.Fields[1].Key)
	assert.Equal(t, "Frequency Deviation (Hz):", snap.Fields[1].Label)

	require.NoError(t, s.Set("rate", "100"))
	require.NoError(t, s.Set("deviation", "500"))
	assert.Equal(t, "100.50 bits/s", s.DataRate())
	assert.Equal(t, "FSK constellation diagram\n(not defined)", s.Diagram())

	require.NoError(t, s.Set("deviation", "lots"))
	assert.Equal(t, "100.00 bits/s", s.DataRate())

	require.NoError(t, s.Set("rate", "x"))
	assert.Equal(t, "Invalid input", s.DataRate())

	// Leaving FSK unbinds the deviation field again.
	require.NoError(t, s.Select("BPSK"))
	require.ErrorIs(t, s.Set("deviation", "1"), host.ErrUnboundField)
	_, ok := s.Value("deviation")
	assert.False(t, ok)
}

func TestSelectUnknownKeepsState(t *testing.T) {
	s := host.NewSession("QPSK")
	require.NoError(t, s.Set("rate", "21"))

	err := s.Select("8PSK")
	require.ErrorIs(t, err, modulation.ErrUnknownVariant)
	assert.Equal(t, "QPSK", s.Variant().Name)
	assert.Equal(t, "42.00 bits/s", s.DataRate())
}

func TestOutputsMatchStrategy(t *testing.T) {
	s := host.NewSession("FSK")
	inputs := [][2]string{{"12", "0"}, {"12", "2500"}, {"nope", "1"}, {"3.25", "bad"}, {"", ""}}

	for _, in := range inputs {
		require.NoError(t, s.Set("rate", in[0]))
		require.NoError(t, s.Set("deviation", in[1]))

		want := s.Variant().ComputeDataRate(modulation.Inputs{"rate": in[0], "deviation": in[1]})
		assert.Equal(t, want, s.DataRate(), in)
		assert.Equal(t, s.Variant().Diagram(), s.Diagram())
	}
}

func TestInformationRate(t *testing.T) {
	code, err := fec.NewDVBS()
	require.NoError(t, err)

	s := host.NewSession("QPSK", host.WithOuterCode(code))
	assert.Equal(t, "0.00 bits/s", s.InformationRate())

	require.NoError(t, s.Set("rate", "102"))
	assert.Equal(t, "204.00 bits/s", s.DataRate())
	assert.Equal(t, "188.00 bits/s", s.InformationRate())
	assert.Equal(t, "188.00 bits/s", s.Snapshot().InformationRate)

	require.NoError(t, s.Set("rate", "?"))
	assert.Equal(t, "Invalid input", s.InformationRate())
}

func TestObserver(t *testing.T) {
	rec := &recorder{}
	s := host.NewSession("BPSK", host.WithObserver(rec))
	require.NoError(t, s.Set("rate", "x"))
	require.NoError(t, s.Select("FSK"))
	require.NoError(t, s.Set("deviation", "x"))

	assert.Equal(t, []string{"BPSK:ok", "BPSK:invalid", "FSK:ok", "FSK:ok"}, rec.calls)
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := host.NewSession("BPSK")
	b := host.NewSession("BPSK")
	assert.NotEqual(t, a.ID(), b.ID())
}
