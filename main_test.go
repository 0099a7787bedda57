package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modcalc/fec"
)

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "FSK", "100", "500", nil))

	want := "Modulation Type: FSK\n" +
		"Modulation Rate (symbols/s): 100\n" +
		"Frequency Deviation (Hz): 500\n" +
		"Data Rate: 100.50 bits/s\n" +
		"FSK constellation diagram\n(not defined)\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintResultIgnoresDeviationForPSK(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "QPSK", "abc", "500", nil))
	assert.Contains(t, buf.String(), "Data Rate: Invalid input\n")
	assert.NotContains(t, buf.String(), "Deviation")
}

func TestPrintResultWithOuterCode(t *testing.T) {
	code, err := fec.NewDVBS()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "BPSK", "204", "0", code))
	assert.Contains(t, buf.String(), "Information Rate (RS(204,188)): 188.00 bits/s\n")
}
