package author

// foldGroups lists, per base-letter replacement, the accented characters
// that fold to it. Lowercasing runs before folding, so only lowercase forms
// are needed except where lowercasing leaves a character unchanged.
var foldGroups = map[string]string{
	"a":  "áàâäãåăāą",
	"ae": "æ",
	"c":  "ćčçĉċ",
	"d":  "ďđð",
	"e":  "éèêëěęȩēėĕ",
	"g":  "ğĝġģ",
	"h":  "ĥħ",
	"i":  "íìîïıīįĩ",
	"j":  "ĵ",
	"k":  "ķ",
	"l":  "łľĺļŀ",
	"n":  "ńñňņ",
	"o":  "óòôöõøőōŏ",
	"oe": "œ",
	"r":  "řŕŗ",
	"s":  "śšşŝș",
	"ss": "ß",
	"t":  "ţťțŧ",
	"th": "þ",
	"u":  "úùûüūůűųũŭ",
	"y":  "ýÿŷ",
	"z":  "źžż",
}

// foldTable maps each accented character to its ASCII replacement.
var foldTable = buildFoldTable(foldGroups)

func buildFoldTable(groups map[string]string) map[rune]string {
	table := make(map[rune]string)
	for base, chars := range groups {
		for _, c := range chars {
			table[c] = base
		}
	}
	return table
}

// Fold returns the ASCII replacement for c and whether c is in the table.
func Fold(c rune) (string, bool) {
	s, ok := foldTable[c]
	return s, ok
}
