package sevenseg_mux

import "strings"

// Dump draws a frame as ascii art, one row of segments per line:
//
//	  -     -     -     -
//	 | |   | |   | |   | |
//	  -     -     -     -
//	 | |   | |   | |   | |
//	  -  .  -  .  -  .  -  .
func Dump(frame []Glyph) string {
	var top, upper, mid, lower, bot strings.Builder

	for _, g := range frame {
		p := Lookup(g)
		top.WriteString(seg(p[SegA], "  -   ", "      "))
		upper.WriteString(seg(p[SegF], " |", "  "))
		upper.WriteString(seg(p[SegB], " |  ", "    "))
		mid.WriteString(seg(p[SegG], "  -   ", "      "))
		lower.WriteString(seg(p[SegE], " |", "  "))
		lower.WriteString(seg(p[SegC], " |  ", "    "))
		bot.WriteString(seg(p[SegD], "  -  ", "     "))
		bot.WriteString(seg(p[SegH], ".", " "))
	}

	return "\n" + strings.Join([]string{
		top.String(),
		upper.String(),
		mid.String(),
		lower.String(),
		bot.String(),
	}, "\n") + "\n"
}

func seg(on bool, lit, dark string) string {
	if on {
		return lit
	}
	return dark
}
