// Package minimize reduces a failing instruction sequence to the subsequence
// that can influence a chosen set of registers, via a conservative backward
// slice. Instructions are opaque strings; only register-name-shaped tokens
// matter.
package minimize

// ForRegisters extracts the minimal ordered subsequence of instructions that
// could have produced the final values of the target registers. Targets use
// the literal names appearing in the text (numeric x/f forms, not ABI
// aliases).
//
// The slice is over-approximating: an instruction touching any interesting
// register is kept, and every register it mentions becomes interesting in
// turn. No def/use distinction is made, so nothing that could matter is ever
// dropped.
func ForRegisters(instructions []string, targets []string) []string {
	if len(instructions) == 0 || len(targets) == 0 {
		return nil
	}

	interesting := make(map[string]struct{}, len(targets))
	for _, reg := range targets {
		interesting[reg] = struct{}{}
	}

	var kept []string
	for i := len(instructions) - 1; i >= 0; i-- {
		inst := instructions[i]
		regs := RegistersIn(inst)

		touches := false
		for _, reg := range regs {
			if _, ok := interesting[reg]; ok {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}

		kept = append(kept, inst)
		for _, reg := range regs {
			interesting[reg] = struct{}{}
		}
	}

	// The reverse pass collected instructions backwards; restore program
	// order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

// RegistersIn returns every register-name-shaped token in an instruction: a
// token starting with 'x' or 'f' followed by a decimal 0-31, after stripping
// surrounding whitespace, commas, parentheses, and colons.
func RegistersIn(inst string) []string {
	var regs []string
	var token []byte

	flush := func() {
		if len(token) > 0 {
			if reg, ok := registerToken(string(token)); ok {
				regs = append(regs, reg)
			}
			token = token[:0]
		}
	}

	for i := 0; i < len(inst); i++ {
		switch inst[i] {
		case '(', ')', ',', ' ', '\t':
			flush()
		default:
			token = append(token, inst[i])
		}
	}
	flush()

	return regs
}

// registerToken reports whether a token names an integer or float register.
func registerToken(token string) (string, bool) {
	token = trimToken(token)
	if len(token) < 2 {
		return "", false
	}
	if token[0] != 'x' && token[0] != 'f' {
		return "", false
	}

	n := 0
	for i := 1; i < len(token); i++ {
		c := token[i]
		if c < '0' || c > '9' {
			return "", false
		}
		n = n*10 + int(c-'0')
		if n > 31 {
			return "", false
		}
	}
	return token, true
}

func trimToken(token string) string {
	isCut := func(c byte) bool {
		return c == ' ' || c == '\t' || c == ',' || c == ':'
	}
	start, end := 0, len(token)
	for start < end && isCut(token[start]) {
		start++
	}
	for end > start && isCut(token[end-1]) {
		end--
	}
	return token[start:end]
}
