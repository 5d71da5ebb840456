package prediction

// Implied converte odd decimal em probabilidade implícita (1/odd); odds <= 0 não têm probabilidade
func Implied(odd float64) (float64, bool) {
	if odd <= 0 {
		return 0, false
	}
	return 1.0 / odd, true
}

// ImpliedPtr é Implied para colunas opcionais; nil ou inválida => 0
func ImpliedPtr(odd *float64) float64 {
	if odd == nil {
		return 0
	}
	p, _ := Implied(*odd)
	return p
}

// Normalize divide cada probabilidade pela soma do conjunto, removendo a margem da casa.
// Soma zero (nenhuma odd válida) devolve nil.
func Normalize(probs []float64) []float64 {
	var total float64
	for _, p := range probs {
		total += p
	}
	if total <= 0 {
		return nil
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = p / total
	}
	return out
}

// Overround é a soma das probabilidades implícitas (1 + margem)
func Overround(odds ...float64) float64 {
	var total float64
	for _, o := range odds {
		p, _ := Implied(o)
		total += p
	}
	return total
}

// Pick é uma seleção com sua odd e probabilidade (0..1)
type Pick struct {
	Label       string  `json:"label"`
	Odd         float64 `json:"odd"`
	Probability float64 `json:"probability"`
}

// Argmax devolve a seleção mais provável; empate fica com a primeira
func Argmax(picks []Pick) (Pick, bool) {
	if len(picks) == 0 {
		return Pick{}, false
	}
	best := picks[0]
	for _, p := range picks[1:] {
		if p.Probability > best.Probability {
			best = p
		}
	}
	return best, true
}
