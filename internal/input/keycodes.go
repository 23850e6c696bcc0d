package input

// Linux input event keycodes for every binding the dispatcher knows
// about. Both backends normalize to these before events reach policy.
const (
	KeyEsc       = 1
	KeyQ         = 16
	KeyW         = 17
	KeyR         = 19
	KeyI         = 23
	KeyS         = 31
	KeyJ         = 36
	KeyK         = 37
	KeyL         = 38
	KeyC         = 46
	KeyM         = 50
	KeyTab       = 15
	KeyEnter     = 28
	KeyBackspace = 14
	KeySpace     = 57
	KeyUp        = 103
	KeyLeft      = 105
	KeyRight     = 106
	KeyDown      = 108
)

// runeForCode maps keycodes to the characters the launcher query accepts.
// A US layout is assumed; anything unmapped is ignored by the query
// editor rather than inserted.
var runeForCode = map[uint16][2]rune{
	2:  {'1', '!'},
	3:  {'2', '@'},
	4:  {'3', '#'},
	5:  {'4', '$'},
	6:  {'5', '%'},
	7:  {'6', '^'},
	8:  {'7', '&'},
	9:  {'8', '*'},
	10: {'9', '('},
	11: {'0', ')'},
	12: {'-', '_'},
	13: {'=', '+'},
	16: {'q', 'Q'},
	17: {'w', 'W'},
	18: {'e', 'E'},
	19: {'r', 'R'},
	20: {'t', 'T'},
	21: {'y', 'Y'},
	22: {'u', 'U'},
	23: {'i', 'I'},
	24: {'o', 'O'},
	25: {'p', 'P'},
	30: {'a', 'A'},
	31: {'s', 'S'},
	32: {'d', 'D'},
	33: {'f', 'F'},
	34: {'g', 'G'},
	35: {'h', 'H'},
	36: {'j', 'J'},
	37: {'k', 'K'},
	38: {'l', 'L'},
	39: {';', ':'},
	44: {'z', 'Z'},
	45: {'x', 'X'},
	46: {'c', 'C'},
	47: {'v', 'V'},
	48: {'b', 'B'},
	49: {'n', 'N'},
	50: {'m', 'M'},
	51: {',', '<'},
	52: {'.', '>'},
	53: {'/', '?'},
	57: {' ', ' '},
}

// RuneForCode returns the character a keycode produces, honoring shift.
func RuneForCode(code uint16, shift bool) (rune, bool) {
	pair, ok := runeForCode[code]
	if !ok {
		return 0, false
	}
	if shift {
		return pair[1], true
	}
	return pair[0], true
}
