package asm

import (
	"fmt"

	"github.com/canxin121/riscv-fuzz-test/htif"
)

// ProgramConfig selects which dump stages the generated scaffold includes.
// The standard configuration dumps trap CSRs from the exception handler and
// the full register file before exit; the minimal one dumps nothing, which
// keeps the binary useful for instruction-removal retries where only the
// exit status matters.
type ProgramConfig struct {
	DumpExceptions bool
	DumpRegisters  bool
}

// StandardProgramConfig returns the configuration used for normal runs.
func StandardProgramConfig() ProgramConfig {
	return ProgramConfig{DumpExceptions: true, DumpRegisters: true}
}

// MinimalProgramConfig returns a configuration with all dumps disabled.
func MinimalProgramConfig() ProgramConfig {
	return ProgramConfig{}
}

// StandardProgram wraps the user-code body in the full HTIF dump scaffold.
func StandardProgram(userCode string) string {
	return Program(userCode, StandardProgramConfig())
}

// MinimalProgram wraps the user-code body without any dump stages.
func MinimalProgram(userCode string) string {
	return Program(userCode, MinimalProgramConfig())
}

// Program assembles a complete RISC-V source file: macro definitions, data
// sections, the instruction-skipping trap handler, and the main program with
// the user code between _user_code: and _dump_regs/_exit. The result is
// preprocessed by gcc, so the __riscv_flen conditionals resolve against the
// -march the file is built with.
func Program(userCode string, cfg ProgramConfig) string {
	return macroDefinitions + dataSections() +
		exceptionHandler(cfg.DumpExceptions) +
		mainProgram(userCode, cfg.DumpRegisters)
}

const macroDefinitions = `# ============================================================================
# Macro definitions
# ============================================================================

# Save/restore t0-t6 so framework code never clobbers user state. t6 itself
# goes through mscratch because it is the pointer into the save area.
.macro SAVE_T_REGS save_area_label
    csrw mscratch, t6
    la   t6, \save_area_label
    sd   t0,   0(t6); sd   t1,   8(t6); sd   t2,  16(t6)
    sd   t3,  24(t6); sd   t4,  32(t6); sd   t5,  40(t6)
    csrr t5, mscratch
    sd   t5,  48(t6)
    csrr t6, mscratch
.endm

.macro RESTORE_T_REGS save_area_label
    csrw mscratch, t6
    la   t6, \save_area_label
    ld   t0,   0(t6); ld   t1,   8(t6); ld   t2,  16(t6)
    ld   t3,  24(t6); ld   t4,  32(t6); ld   t5,  40(t6)
    ld   t6,  48(t6)
    csrr t6, mscratch
.endm

# HTIF syscall 64 (write) on device 1: send data_size bytes at data_label to
# the host, then spin until fromhost acknowledges. Clobbers t0-t3.
.macro HTIF_PRINT_RAW data_label, data_size
    la   t0, htif_communication_buffer
    li   t1, 64; sd t1, 0(t0); li   t1, 1;   sd t1, 8(t0)
    la   t1, \data_label; sd t1, 16(t0); li   t1, \data_size;   sd t1, 24(t0)
    fence; la   t1, tohost; sd t0, 0(t1)
wait_htif_print_\@:
    la   t2, fromhost; ld t3, 0(t2); beqz t3, wait_htif_print_\@
    sd   zero, 0(t2); fence
.endm

# Dump x0-x31 and the core machine CSRs into register_dump_buffer, then ship
# the buffer over HTIF behind the matching magic prefix. With a hard-float
# -march the fcsr and f0-f31 extend the payload.
.macro DUMP_ALL_REGS_RAW
    csrw mscratch, t6
    la t6, register_dump_buffer

    sd  x0,    0(t6); sd  x1,    8(t6); sd  x2,   16(t6); sd  x3,   24(t6)
    sd  x4,   32(t6); sd  x5,   40(t6); sd  x6,   48(t6); sd  x7,   56(t6)
    sd  x8,   64(t6); sd  x9,   72(t6); sd x10,   80(t6); sd x11,   88(t6)
    sd x12,   96(t6); sd x13,  104(t6); sd x14,  112(t6); sd x15,  120(t6)
    sd x16,  128(t6); sd x17,  136(t6); sd x18,  144(t6); sd x19,  152(t6)
    sd x20,  160(t6); sd x21,  168(t6); sd x22,  176(t6); sd x23,  184(t6)
    sd x24,  192(t6); sd x25,  200(t6); sd x26,  208(t6); sd x27,  216(t6)
    sd x28,  224(t6); sd x29,  232(t6); sd x30,  240(t6)
    csrr t5, mscratch
    sd t5, 248(t6)  # original x31 (t6)

    csrr t0, mstatus;     sd t0, 256(t6)
    csrr t0, misa;        sd t0, 264(t6)
    csrr t0, medeleg;     sd t0, 272(t6)
    csrr t0, mideleg;     sd t0, 280(t6)
    csrr t0, mie;         sd t0, 288(t6)
    csrr t0, mtvec;       sd t0, 296(t6)
    csrr t0, mcounteren;  sd t0, 304(t6)
    csrr t0, mscratch;    sd t0, 312(t6)
    csrr t0, mepc;        sd t0, 320(t6)
    csrr t0, mcause;      sd t0, 328(t6)
    csrr t0, mtval;       sd t0, 336(t6)
    csrr t0, mip;         sd t0, 344(t6)
    csrr t0, mcycle;      sd t0, 352(t6)
    csrr t0, minstret;    sd t0, 360(t6)
    csrr t0, mvendorid;   sd t0, 368(t6)
    csrr t0, marchid;     sd t0, 376(t6)
    csrr t0, mimpid;      sd t0, 384(t6)
    csrr t0, mhartid;     sd t0, 392(t6)

    .set DUMP_SIZE_NO_FP, 400

#if __riscv_flen > 0
    # F/D present: enable the FPU long enough to read fcsr and f0-f31.
    csrr t0, mstatus
    li   t1, (1 << 13)
    or   t1, t0, t1
    csrw mstatus, t1

    csrr t1, fcsr;      sd t1, 400(t6)

    fsd f0,   408(t6); fsd f1,   416(t6); fsd f2,   424(t6); fsd f3,   432(t6)
    fsd f4,   440(t6); fsd f5,   448(t6); fsd f6,   456(t6); fsd f7,   464(t6)
    fsd f8,   472(t6); fsd f9,   480(t6); fsd f10,  488(t6); fsd f11,  496(t6)
    fsd f12,  504(t6); fsd f13,  512(t6); fsd f14,  520(t6); fsd f15,  528(t6)
    fsd f16,  536(t6); fsd f17,  544(t6); fsd f18,  552(t6); fsd f19,  560(t6)
    fsd f20,  568(t6); fsd f21,  576(t6); fsd f22,  584(t6); fsd f23,  592(t6)
    fsd f24,  600(t6); fsd f25,  608(t6); fsd f26,  616(t6); fsd f27,  624(t6)
    fsd f28,  632(t6); fsd f29,  640(t6); fsd f30,  648(t6); fsd f31,  656(t6)

    .set DUMP_SIZE_WITH_FP, 664

    csrw mstatus, t0

    HTIF_PRINT_RAW full_reg_dump_prefix_with_fp, 8
    HTIF_PRINT_RAW register_dump_buffer, DUMP_SIZE_WITH_FP
#else
    HTIF_PRINT_RAW full_reg_dump_prefix_no_fp, 8
    HTIF_PRINT_RAW register_dump_buffer, DUMP_SIZE_NO_FP
#endif
    csrw mscratch, zero
.endm

.macro DUMP_ALL_REGS temp_save_area
    SAVE_T_REGS \temp_save_area
    DUMP_ALL_REGS_RAW
    RESTORE_T_REGS \temp_save_area
.endm

# Dump the nine trap CSRs behind the exception prefix. Only called from the
# handler, which already saved the t registers.
.macro DUMP_EXCEPTION_CSRS_RAW
    la   t0, exception_csr_dump_buffer
    csrr t1, mstatus; sd t1,   0(t0); csrr t1, mcause;  sd t1,   8(t0)
    csrr t1, mepc;    sd t1,  16(t0); csrr t1, mtval;   sd t1,  24(t0)
    csrr t1, mie;     sd t1,  32(t0); csrr t1, mip;     sd t1,  40(t0)
    csrr t1, mtvec;   sd t1,  48(t0); csrr t1, mscratch;sd t1,  56(t0)
    csrr t1, mhartid; sd t1,  64(t0)
    HTIF_PRINT_RAW exc_csr_dump_prefix, 8
    HTIF_PRINT_RAW exception_csr_dump_buffer, 72
.endm

.macro EXIT_SIM
    li   t0, 1; la   t1, tohost; sd   t0, 0(t1)
infinite_exit_loop_\@: j infinite_exit_loop_\@
.endm

# Force both simulators to identical architectural state before user code
# runs. Writes to CSRs one side does not implement trap and are skipped by
# the handler, so the sequence is safe on both.
.macro RESET_MACHINE_STATE
    li t0, 0
    li t1, 0

    # M-mode trap state and delegation. mtvec stays pointed at the handler.
    csrwi mstatus, 0
    csrwi mie, 0
    csrwi mip, 0
    csrwi mepc, 0
    csrwi mcause, 0
    csrwi mtval, 0
    csrwi mscratch, 0
    csrwi medeleg, 0
    csrwi mideleg, 0

    # Disable all PMP regions for full access.
    csrw pmpaddr0, x0; csrw pmpaddr1, x0; csrw pmpaddr2, x0; csrw pmpaddr3, x0
    csrw pmpaddr4, x0; csrw pmpaddr5, x0; csrw pmpaddr6, x0; csrw pmpaddr7, x0
    csrw pmpaddr8, x0; csrw pmpaddr9, x0; csrw pmpaddr10, x0; csrw pmpaddr11, x0
    csrw pmpaddr12, x0; csrw pmpaddr13, x0; csrw pmpaddr14, x0; csrw pmpaddr15, x0
    csrw pmpcfg0, x0
    csrw pmpcfg2, x0

    # Counters.
    csrwi mcounteren, 0
    csrwi scounteren, 0
    csrwi mcountinhibit, 0
    csrw mcycle, t0; csrw minstret, t0
    csrw mhpmcounter3, t0; csrw mhpmevent3, t0
    csrw mhpmcounter4, t0; csrw mhpmevent4, t0
    csrw mhpmcounter5, t0; csrw mhpmevent5, t0
    csrw mhpmcounter6, t0; csrw mhpmevent6, t0
    csrw mhpmcounter7, t0; csrw mhpmevent7, t0
    csrw mhpmcounter8, t0; csrw mhpmevent8, t0
    csrw mhpmcounter9, t0; csrw mhpmevent9, t0
    csrw mhpmcounter10, t0; csrw mhpmevent10, t0
    csrw mhpmcounter11, t0; csrw mhpmevent11, t0
    csrw mhpmcounter12, t0; csrw mhpmevent12, t0
    csrw mhpmcounter13, t0; csrw mhpmevent13, t0
    csrw mhpmcounter14, t0; csrw mhpmevent14, t0
    csrw mhpmcounter15, t0; csrw mhpmevent15, t0
    csrw mhpmcounter16, t0; csrw mhpmevent16, t0
    csrw mhpmcounter17, t0; csrw mhpmevent17, t0
    csrw mhpmcounter18, t0; csrw mhpmevent18, t0
    csrw mhpmcounter19, t0; csrw mhpmevent19, t0
    csrw mhpmcounter20, t0; csrw mhpmevent20, t0
    csrw mhpmcounter21, t0; csrw mhpmevent21, t0
    csrw mhpmcounter22, t0; csrw mhpmevent22, t0
    csrw mhpmcounter23, t0; csrw mhpmevent23, t0
    csrw mhpmcounter24, t0; csrw mhpmevent24, t0
    csrw mhpmcounter25, t0; csrw mhpmevent25, t0
    csrw mhpmcounter26, t0; csrw mhpmevent26, t0
    csrw mhpmcounter27, t0; csrw mhpmevent27, t0
    csrw mhpmcounter28, t0; csrw mhpmevent28, t0
    csrw mhpmcounter29, t0; csrw mhpmevent29, t0
    csrw mhpmcounter30, t0; csrw mhpmevent30, t0
    csrw mhpmcounter31, t0; csrw mhpmevent31, t0

    # Triggers.
    csrwi tselect, 0; csrwi tdata1, 0; csrwi tdata2, 0
    csrwi tselect, 1; csrwi tdata1, 0; csrwi tdata2, 0
    csrwi tselect, 0

    # S-mode CSRs.
    csrwi sstatus, 0; csrwi sie, 0; csrwi sip, 0
    csrwi sepc, 0; csrwi scause, 0; csrwi stval, 0
    csrwi sscratch, 0; csrwi stvec, 0; csrwi satp, 0

#if __riscv_flen > 0
    # Zero fcsr and every floating-point register.
    csrr t0, mstatus
    li   t1, (1 << 13)
    or   t0, t0, t1
    csrw mstatus, t0
    csrwi fcsr, 0
    fmv.d.x f0, x0; fmv.d.x f1, x0; fmv.d.x f2, x0; fmv.d.x f3, x0
    fmv.d.x f4, x0; fmv.d.x f5, x0; fmv.d.x f6, x0; fmv.d.x f7, x0
    fmv.d.x f8, x0; fmv.d.x f9, x0; fmv.d.x f10, x0; fmv.d.x f11, x0
    fmv.d.x f12, x0; fmv.d.x f13, x0; fmv.d.x f14, x0; fmv.d.x f15, x0
    fmv.d.x f16, x0; fmv.d.x f17, x0; fmv.d.x f18, x0; fmv.d.x f19, x0
    fmv.d.x f20, x0; fmv.d.x f21, x0; fmv.d.x f22, x0; fmv.d.x f23, x0
    fmv.d.x f24, x0; fmv.d.x f25, x0; fmv.d.x f26, x0; fmv.d.x f27, x0
    fmv.d.x f28, x0; fmv.d.x f29, x0; fmv.d.x f30, x0; fmv.d.x f31, x0
#endif

    # General-purpose registers last.
    mv x1,  zero; mv x2,  zero; mv x3,  zero; mv x4,  zero
    mv x5,  zero; mv x6,  zero; mv x7,  zero; mv x8,  zero
    mv x9,  zero; mv x10, zero; mv x11, zero; mv x12, zero
    mv x13, zero; mv x14, zero; mv x15, zero; mv x16, zero
    mv x17, zero; mv x18, zero; mv x19, zero; mv x20, zero
    mv x21, zero; mv x22, zero; mv x23, zero; mv x24, zero
    mv x25, zero; mv x26, zero; mv x27, zero; mv x28, zero
    mv x29, zero; mv x30, zero; mv x31, zero
.endm

`

func dataSections() string {
	return fmt.Sprintf(`# ============================================================================
# Memory and data sections
# ============================================================================
.section .bss
.align 4
register_dump_buffer:       .zero 1024
exception_csr_dump_buffer: .zero 72
framework_temp_save_area:   .zero 64

.section .data
.align 6
htif_communication_buffer: .zero 64

#if __riscv_flen > 0
full_reg_dump_prefix_with_fp:
    .dword 0x%X
#endif

#if __riscv_flen == 0
full_reg_dump_prefix_no_fp:
    .dword 0x%X
#endif

exc_csr_dump_prefix:
    .dword 0x%X

.section .tohost, "aw", @progbits
.align 6
.globl tohost
tohost:   .dword 0
.globl fromhost
fromhost: .dword 0

.section .text
.globl _start

`, htif.MarkerRegistersIntAndFloat, htif.MarkerRegistersIntOnly,
		htif.MarkerExceptionCSR)
}

func exceptionHandler(dumpCSRs bool) string {
	dump := ""
	if dumpCSRs {
		dump = "    DUMP_EXCEPTION_CSRS_RAW\n"
	}
	return `# ============================================================================
# Exception handler
# ============================================================================
exception_handler:
    SAVE_T_REGS framework_temp_save_area

` + dump + `
    # Advance mepc past the faulting instruction so execution continues:
    # 4 bytes for a standard encoding, 2 for a compressed one.
    csrr t0, mepc
    lhu t1, 0(t0)
    andi t2, t1, 0x3
    li t3, 0x3
    bne t2, t3, compressed_inst
    addi t0, t0, 4
    j update_mepc

compressed_inst:
    addi t0, t0, 2

update_mepc:
    csrw mepc, t0
    csrwi mcause, 0
    csrwi mtval, 0
    csrwi mip, 0

    RESTORE_T_REGS framework_temp_save_area
    mret

`
}

func mainProgram(userCode string, dumpRegisters bool) string {
	program := `# ============================================================================
# Program entry
# ============================================================================
_start:

_init:
    la t0, exception_handler
    csrw mtvec, t0

    RESET_MACHINE_STATE

_user_code:
` + userCode + "\n\n"

	if dumpRegisters {
		program += "_dump_regs:\n    DUMP_ALL_REGS framework_temp_save_area\n"
	}

	program += "\n_exit:\n    EXIT_SIM\n"
	return program
}
