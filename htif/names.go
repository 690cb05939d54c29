package htif

import "fmt"

var intRegisterNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterName returns the ABI name for integer register x<index>.
func RegisterName(index int) string {
	if index < 0 || index > 31 {
		return "invalid"
	}
	return intRegisterNames[index]
}

// FloatRegisterName returns the ABI name for float register f<index>.
func FloatRegisterName(index int) string {
	switch {
	case index >= 0 && index <= 7:
		return fmt.Sprintf("ft%d", index)
	case index <= 9:
		return fmt.Sprintf("fs%d", index-8)
	case index <= 17:
		return fmt.Sprintf("fa%d", index-10)
	case index <= 27:
		return fmt.Sprintf("fs%d", index-18+2)
	case index <= 31:
		return fmt.Sprintf("ft%d", index-28+8)
	default:
		return "invalid"
	}
}

// McauseIllegalInstruction is the mcause code for an illegal instruction
// trap.
const McauseIllegalInstruction uint64 = 2

// ExceptionDescription renders an mcause value as the trap it encodes. Bit
// 63 distinguishes interrupts from exceptions.
func ExceptionDescription(mcause uint64) string {
	interrupt := mcause>>63 == 1
	code := mcause & 0x7FFFFFFFFFFFFFFF

	if interrupt {
		switch code {
		case 0:
			return "User software interrupt"
		case 1:
			return "Supervisor software interrupt"
		case 3:
			return "Machine software interrupt"
		case 4:
			return "User timer interrupt"
		case 5:
			return "Supervisor timer interrupt"
		case 7:
			return "Machine timer interrupt"
		case 8:
			return "User external interrupt"
		case 9:
			return "Supervisor external interrupt"
		case 11:
			return "Machine external interrupt"
		default:
			return fmt.Sprintf("Unknown interrupt (code=%d)", code)
		}
	}

	switch code {
	case 0:
		return "Instruction address misaligned"
	case 1:
		return "Instruction access fault"
	case 2:
		return "Illegal instruction"
	case 3:
		return "Breakpoint"
	case 4:
		return "Load address misaligned"
	case 5:
		return "Load access fault"
	case 6:
		return "Store/AMO address misaligned"
	case 7:
		return "Store/AMO access fault"
	case 8:
		return "Environment call from U-mode"
	case 9:
		return "Environment call from S-mode"
	case 11:
		return "Environment call from M-mode"
	case 12:
		return "Instruction page fault"
	case 13:
		return "Load page fault"
	case 15:
		return "Store/AMO page fault"
	default:
		return fmt.Sprintf("Unknown exception (code=%d)", code)
	}
}
