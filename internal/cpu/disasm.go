package cpu

import "fmt"

var (
	controlNames = [8]string{"HLT", "SDBD", "EIS", "DIS", "J", "TCI", "CLRC", "SETC"}
	reg1Names    = [8]string{"", "INCR", "DECR", "COMR", "NEGR", "ADCR", "", "RSWD"}
	shiftNames   = [8]string{"SWAP", "SLL", "RLC", "SLLC", "SLR", "SAR", "RRC", "SARC"}
	reg2Names    = [8]string{"", "", "MOVR", "ADDR", "SUBR", "CMPR", "ANDR", "XORR"}
	memNames     = [8]string{"", "", "MVI", "ADD", "SUB", "CMP", "AND", "XOR"}
	branchNames  = [16]string{
		"B", "BC", "BOV", "BPL", "BEQ", "BLT", "BLE", "BUSC",
		"NOPP", "BNC", "BNOV", "BMI", "BNEQ", "BGE", "BGT", "BESC",
	}
)

// Disassemble decodes the instruction at addr using peek to read memory.
// It returns the text and the instruction length in words. SDBD prefixes
// are decoded on their own; the immediate that follows is shown as one word.
func Disassemble(peek func(uint16) uint16, addr uint16) (string, int) {
	op := peek(addr) & 0x3FF
	switch {
	case op == 0x004:
		a1 := peek(addr + 1)
		a2 := peek(addr + 2)
		target := (a1&0xFC)<<8 | a2&0x3FF
		name := "J"
		link := (a1 >> 8) & 3
		if link != 3 {
			name = "JSR"
		}
		switch a1 & 3 {
		case 1:
			name += "E"
		case 2:
			name += "D"
		}
		if link != 3 {
			return fmt.Sprintf("%s R%d, $%04X", name, 4+link, target), 3
		}
		return fmt.Sprintf("%s $%04X", name, target), 3
	case op < 0x008:
		return controlNames[op], 1
	case op < 0x040:
		r := op & 7
		switch op >> 3 {
		case 6:
			switch {
			case r < 4:
				return fmt.Sprintf("GSWD R%d", r), 1
			case r < 6:
				return "NOP", 1
			}
			return "SIN", 1
		}
		return fmt.Sprintf("%s R%d", reg1Names[op>>3], r), 1
	case op < 0x080:
		name := shiftNames[(op>>3)&7]
		if op&4 != 0 {
			return fmt.Sprintf("%s R%d, 2", name, op&3), 1
		}
		return fmt.Sprintf("%s R%d", name, op&3), 1
	case op < 0x200:
		return fmt.Sprintf("%s R%d, R%d", reg2Names[op>>6], (op>>3)&7, op&7), 1
	case op < 0x240:
		disp := peek(addr + 1)
		next := addr + 2
		target := next + disp
		if op&0x20 != 0 {
			target = next - disp - 1
		}
		if op&0x10 != 0 {
			return fmt.Sprintf("BEXT $%04X, %d", target, op&0xF), 2
		}
		return fmt.Sprintf("%s $%04X", branchNames[op&0xF], target), 2
	case op < 0x280:
		src := op & 7
		switch mode := (op >> 3) & 7; mode {
		case 0:
			return fmt.Sprintf("MVO R%d, $%04X", src, peek(addr+1)), 2
		case 7:
			return fmt.Sprintf("MVOI R%d", src), 2
		default:
			return fmt.Sprintf("MVO@ R%d, R%d", src, mode), 1
		}
	}
	name := memNames[(op>>6)&7]
	dst := op & 7
	switch mode := (op >> 3) & 7; mode {
	case 0:
		return fmt.Sprintf("%s $%04X, R%d", name, peek(addr+1), dst), 2
	case 7:
		return fmt.Sprintf("%sI #$%04X, R%d", name, peek(addr+1), dst), 2
	default:
		return fmt.Sprintf("%s@ R%d, R%d", name, mode, dst), 1
	}
}
