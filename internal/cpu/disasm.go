package cpu

import "fmt"

// MemReader is the minimal read-only view Disassemble needs; bus.Bus
// satisfies it directly.
type MemReader interface {
	Read(addr uint16) byte
}

// Instruction is one disassembled opcode at a given address.
type Instruction struct {
	Address uint16
	Text    string
	Length  int // bytes consumed, including the opcode and any operands
}

var disasmR8 = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
var disasmRP = [4]string{"BC", "DE", "HL", "SP"}
var disasmRP2 = [4]string{"BC", "DE", "HL", "AF"}
var disasmCC = [4]string{"NZ", "Z", "NC", "C"}
var disasmALU = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
var disasmRot = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

// Disassemble decodes the single instruction at pc using the exact x/y/z/p/q
// bit decomposition decode.go dispatches on, so the mnemonic table can never
// silently drift from what Tick/decode actually executes.
func Disassemble(mem MemReader, pc uint16) Instruction {
	op := mem.Read(pc)
	d8 := func() byte { return mem.Read(pc + 1) }
	d16 := func() uint16 { return uint16(mem.Read(pc+1)) | uint16(mem.Read(pc+2))<<8 }
	r8signed := func() int8 { return int8(mem.Read(pc + 1)) }

	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	text, length := disasmDispatch(op, x, y, z, p, q, d8, d16, r8signed, pc)
	return Instruction{Address: pc, Text: text, Length: length}
}

func disasmDispatch(op, x, y, z, p, q byte, d8 func() byte, d16 func() uint16, r8signed func() int8, pc uint16) (string, int) {
	switch x {
	case 0:
		return disasmX0(y, z, q, p, d8, d16, r8signed, pc)
	case 1:
		return disasmX1(y, z)
	case 2:
		return fmt.Sprintf("%s%s", disasmALU[y], disasmR8[z]), 1
	default:
		return disasmX3(op, y, z, p, q, d8, d16, pc)
	}
}

func disasmX0(y, z, q, p byte, d8 func() byte, d16 func() uint16, r8signed func() int8, pc uint16) (string, int) {
	switch z {
	case 0:
		switch y {
		case 0:
			return "NOP", 1
		case 1:
			return fmt.Sprintf("LD (0x%04X),SP", d16()), 3
		case 2:
			return "STOP", 2
		case 3:
			target := uint16(int32(pc) + 2 + int32(r8signed()))
			return fmt.Sprintf("JR 0x%04X", target), 2
		default:
			target := uint16(int32(pc) + 2 + int32(r8signed()))
			return fmt.Sprintf("JR %s,0x%04X", disasmCC[y-4], target), 2
		}
	case 1:
		if q == 0 {
			return fmt.Sprintf("LD %s,0x%04X", disasmRP[p], d16()), 3
		}
		return fmt.Sprintf("ADD HL,%s", disasmRP[p]), 1
	case 2:
		var addr string
		switch p {
		case 0:
			addr = "(BC)"
		case 1:
			addr = "(DE)"
		case 2:
			addr = "(HL+)"
		default:
			addr = "(HL-)"
		}
		if q == 0 {
			return fmt.Sprintf("LD %s,A", addr), 1
		}
		return fmt.Sprintf("LD A,%s", addr), 1
	case 3:
		if q == 0 {
			return fmt.Sprintf("INC %s", disasmRP[p]), 1
		}
		return fmt.Sprintf("DEC %s", disasmRP[p]), 1
	case 4:
		return fmt.Sprintf("INC %s", disasmR8[y]), 1
	case 5:
		return fmt.Sprintf("DEC %s", disasmR8[y]), 1
	case 6:
		return fmt.Sprintf("LD %s,0x%02X", disasmR8[y], d8()), 2
	default: // z==7
		names := [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
		return names[y], 1
	}
}

func disasmX1(y, z byte) (string, int) {
	if y == 6 && z == 6 {
		return "HALT", 1
	}
	if y == 6 {
		return fmt.Sprintf("LD (HL),%s", disasmR8[z]), 1
	}
	if z == 6 {
		return fmt.Sprintf("LD %s,(HL)", disasmR8[y]), 1
	}
	return fmt.Sprintf("LD %s,%s", disasmR8[y], disasmR8[z]), 1
}

func disasmX3(op, y, z, p, q byte, d8 func() byte, d16 func() uint16, pc uint16) (string, int) {
	switch z {
	case 0:
		switch {
		case y <= 3:
			return fmt.Sprintf("RET %s", disasmCC[y]), 1
		case y == 4:
			return fmt.Sprintf("LDH (0x%02X),A", d8()), 2
		case y == 5:
			return "ADD SP,r8", 2
		case y == 6:
			return fmt.Sprintf("LDH A,(0x%02X)", d8()), 2
		default:
			return "LD HL,SP+r8", 2
		}
	case 1:
		if q == 0 {
			return fmt.Sprintf("POP %s", disasmRP2[p]), 1
		}
		switch p {
		case 0:
			return "RET", 1
		case 1:
			return "RETI", 1
		case 2:
			return "JP (HL)", 1
		default:
			return "LD SP,HL", 1
		}
	case 2:
		switch {
		case y <= 3:
			return fmt.Sprintf("JP %s,0x%04X", disasmCC[y], d16()), 3
		case y == 4:
			return "LD (0xFF00+C),A", 1
		case y == 5:
			return fmt.Sprintf("LD (0x%04X),A", d16()), 3
		case y == 6:
			return "LD A,(0xFF00+C)", 1
		default:
			return fmt.Sprintf("LD A,(0x%04X)", d16()), 3
		}
	case 3:
		switch y {
		case 0:
			return fmt.Sprintf("JP 0x%04X", d16()), 3
		case 1:
			sub, _ := disasmCB(d8())
			return sub, 2
		case 6:
			return "DI", 1
		case 7:
			return "EI", 1
		default:
			return invalidText(op), 1
		}
	case 4:
		if y <= 3 {
			return fmt.Sprintf("CALL %s,0x%04X", disasmCC[y], d16()), 3
		}
		return invalidText(op), 1
	case 5:
		if q == 0 {
			return fmt.Sprintf("PUSH %s", disasmRP2[p]), 1
		}
		if p == 0 {
			return fmt.Sprintf("CALL 0x%04X", d16()), 3
		}
		return invalidText(op), 1
	case 6:
		return fmt.Sprintf("%s0x%02X", disasmALU[y], d8()), 2
	default: // z==7
		return fmt.Sprintf("RST 0x%02X", y*8), 1
	}
}

// disasmCB decodes a CB-prefixed opcode byte into its mnemonic; the caller
// already accounted for the CB prefix byte in Length.
func disasmCB(op byte) (string, int) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	switch x {
	case 0:
		return fmt.Sprintf("%s %s", disasmRot[y], disasmR8[z]), 2
	case 1:
		return fmt.Sprintf("BIT %d,%s", y, disasmR8[z]), 2
	case 2:
		return fmt.Sprintf("RES %d,%s", y, disasmR8[z]), 2
	default:
		return fmt.Sprintf("SET %d,%s", y, disasmR8[z]), 2
	}
}

func invalidText(op byte) string {
	return fmt.Sprintf("DB 0x%02X (invalid)", op)
}

// DisassembleRange walks count instructions forward from pc, following each
// instruction's actual decoded length so it never desyncs on variable-width
// opcodes.
func DisassembleRange(mem MemReader, pc uint16, count int) []Instruction {
	out := make([]Instruction, 0, count)
	for i := 0; i < count; i++ {
		in := Disassemble(mem, pc)
		out = append(out, in)
		pc += uint16(in.Length)
	}
	return out
}
