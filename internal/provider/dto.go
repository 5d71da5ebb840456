package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value aceita string, número, bool ou null no JSON e guarda a forma textual.
// O provedor alterna entre "1.85" e 1.85 para o mesmo campo.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*v = Value(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = Value(n.String())
	}
	return nil
}

func (v Value) String() string { return string(v) }

// Int tenta ler o valor como inteiro
func (v Value) Int() (int, bool) {
	n, err := strconv.Atoi(string(v))
	return n, err == nil
}

// Response é o envelope comum de /next-matchs e /matchs
type Response struct {
	Status bool     `json:"status"`
	Matchs []Record `json:"matchs"`
}

// Record é uma partida como enviada pelo provedor
type Record struct {
	ID          Value           `json:"id"`
	TimeA       string          `json:"timeA"`
	TimeB       string          `json:"timeB"`
	Hora        Value           `json:"hora"`
	Minuto      Value           `json:"minuto"`
	Horario     Value           `json:"horario"`
	Odds        json.RawMessage `json:"odds"`
	ResultadoFt Value           `json:"resultadoFt"`
	Resultado   Value           `json:"resultado"`
	ResultadoHt Value           `json:"resultadoHt"`
}

// OddsMap decodifica o objeto odds como chave -> texto; ausente ou null vira mapa vazio
func (r Record) OddsMap() (map[string]string, error) {
	out := make(map[string]string)
	if len(r.Odds) == 0 || bytes.Equal(bytes.TrimSpace(r.Odds), []byte("null")) {
		return out, nil
	}
	var raw map[string]Value
	if err := json.Unmarshal(r.Odds, &raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		out[k] = string(v)
	}
	return out, nil
}

// FinalScore devolve o placar final, preferindo resultadoFt
func (r Record) FinalScore() string {
	if r.ResultadoFt != "" {
		return string(r.ResultadoFt)
	}
	return string(r.Resultado)
}
