package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter rune
		want      []RawRecord
	}{
		{
			name:  "comma",
			input: "ID,ESTATUS,VALOR\nA1,ENTREGADO,100.000\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO", "VALOR": "100.000"}},
		},
		{
			name:  "semicolon is sniffed",
			input: "ID;ESTATUS;VALOR\nA1;ENTREGADO;1.500,50\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO", "VALOR": "1.500,50"}},
		},
		{
			name:  "tab is sniffed",
			input: "ID\tESTATUS\nA1\tDevolucion\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "Devolucion"}},
		},
		{
			name:  "quoted commas do not count toward sniffing",
			input: "\"ID, pedido\";ESTATUS\nA1;ENTREGADO\n",
			want:  []RawRecord{{"ID, pedido": "A1", "ESTATUS": "ENTREGADO"}},
		},
		{
			name:      "forced delimiter",
			input:     "ID|ESTATUS\nA1|ENTREGADO\n",
			delimiter: '|',
			want:      []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO"}},
		},
		{
			name:  "title block above header",
			input: "Reporte de pedidos\nGenerado: 2024-03-15\n\nID,ESTATUS,TRANSPORTADORA\nA1,ENTREGADO,TCC\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO", "TRANSPORTADORA": "TCC"}},
		},
		{
			name:  "blank rows are skipped",
			input: "ID,ESTATUS\n,\nA1,ENTREGADO\n  ,  \nA2,ENTREGADO\n",
			want: []RawRecord{
				{"ID": "A1", "ESTATUS": "ENTREGADO"},
				{"ID": "A2", "ESTATUS": "ENTREGADO"},
			},
		},
		{
			name:  "short rows keep present cells",
			input: "ID,ESTATUS,VALOR\nA1,ENTREGADO\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO"}},
		},
		{
			name:  "duplicate header keeps first non-empty",
			input: "ID,ESTATUS,ESTATUS\nA1,,ENTREGADO\nA2,Devolucion,ENTREGADO\n",
			want: []RawRecord{
				{"ID": "A1", "ESTATUS": "ENTREGADO"},
				{"ID": "A2", "ESTATUS": "Devolucion"},
			},
		},
		{
			name:  "excel formula header cells are cleaned",
			input: "=\"ID\",ESTATUS\nA1,ENTREGADO\n",
			want:  []RawRecord{{"ID": "A1", "ESTATUS": "ENTREGADO"}},
		},
		{
			name:  "header only",
			input: "ID,ESTATUS\n",
			want:  []RawRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input), testHeaders, tt.delimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyFile},
		{name: "no known header", input: "foo,bar\n1,2\n", wantErr: ErrHeaderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), testHeaders, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadCSV_HeaderBeyondSearchWindow(t *testing.T) {
	old := MaxHeaderSearchRows
	MaxHeaderSearchRows = 2
	defer func() { MaxHeaderSearchRows = old }()

	_, err := ReadCSV(strings.NewReader("a\nb\nc\nID,ESTATUS\nA1,x\n"), testHeaders, 0)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestReadCSV_FeedsNormalize(t *testing.T) {
	input := "\xef\xbb\xbfID;ESTATUS;VALOR;FLETE;N\xc3\x9aMERO GUIA\nA1;ENTREGADO;100.000;10.000;G-1\n"

	rows, err := ReadCSV(DecodeText(strings.NewReader(input)), testHeaders, 0)
	require.NoError(t, err)

	recs := Normalize(rows, testHeaders)
	require.Len(t, recs, 1)
	assert.Equal(t, "A1", recs[0].ExternalID)
	assert.Equal(t, "G-1", recs[0].TrackingNumber)
	assert.Equal(t, "100000", recs[0].OrderValue.String())
	assert.Equal(t, "10000", recs[0].ShippingCost.String())
}
