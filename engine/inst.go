package engine

import (
	"fmt"
	"strings"
)

// InstID indexes an instruction within a Program.
type InstID uint32

// InvalidInst marks an unset jump target.
const InvalidInst InstID = 0xFFFFFFFF

// OpCode identifies the operation of an instruction and determines which
// Inst fields are meaningful.
type OpCode uint8

const (
	// OpChar consumes one character equal to Rune (fold-equal when Fold).
	OpChar OpCode = iota

	// OpSet consumes one character that belongs to character set Index.
	OpSet

	// OpAny consumes any character.
	OpAny

	// OpAnyNotNewline consumes any character except '\n'.
	OpAnyNotNewline

	// OpAnyScalar consumes a single Unicode scalar regardless of semantics.
	OpAnyScalar

	// OpGrapheme consumes one extended grapheme cluster regardless of semantics.
	OpGrapheme

	// OpNewlineSequence consumes "\r\n" or a single vertical whitespace character.
	OpNewlineSequence

	// OpAssert checks the zero-width condition Assert.
	OpAssert

	// OpSave pushes a save point that resumes at Target.
	OpSave

	// OpFence pushes a non-resumable marker recording the current position.
	OpFence

	// OpSaveFence pushes a marker that, like OpSave, resumes at Target.
	OpSaveFence

	// OpCut discards every save point above and including the newest marker.
	OpCut

	// OpCutRestore is OpCut followed by restoring the marker's position.
	OpCutRestore

	// OpCutFail is OpCut followed by a failure.
	OpCutFail

	// OpBranch jumps to Target.
	OpBranch

	// OpCaptureStart records the start of capture group Index.
	OpCaptureStart

	// OpCaptureEnd records the end of capture group Index.
	OpCaptureEnd

	// OpBackref consumes the text last captured by group Index.
	OpBackref

	// OpCondCapture jumps to Target unless capture group Index has matched.
	OpCondCapture

	// OpSetRegister stores the current position in loop register Index.
	OpSetRegister

	// OpCheckProgress jumps to Target when the position still equals loop
	// register Index, ending a loop whose body matched empty.
	OpCheckProgress

	// OpResetStart moves the reported match start to the current position (\K).
	OpResetStart

	// OpAccept ends the attempt with a match.
	OpAccept

	// OpFail fails unconditionally.
	OpFail
)

var opNames = [...]string{
	OpChar:            "char",
	OpSet:             "set",
	OpAny:             "any",
	OpAnyNotNewline:   "anyNonNewline",
	OpAnyScalar:       "anyScalar",
	OpGrapheme:        "grapheme",
	OpNewlineSequence: "newlineSequence",
	OpAssert:          "assert",
	OpSave:            "save",
	OpFence:           "fence",
	OpSaveFence:       "saveFence",
	OpCut:             "cut",
	OpCutRestore:      "cutRestore",
	OpCutFail:         "cutFail",
	OpBranch:          "branch",
	OpCaptureStart:    "captureStart",
	OpCaptureEnd:      "captureEnd",
	OpBackref:         "backreference",
	OpCondCapture:     "condCapture",
	OpSetRegister:     "setRegister",
	OpCheckProgress:   "checkProgress",
	OpResetStart:      "resetStart",
	OpAccept:          "accept",
	OpFail:            "fail",
}

// String returns a human-readable representation of the OpCode
func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Unknown(%d)", op)
}

// IsConsuming reports whether the instruction advances the position.
func (op OpCode) IsConsuming() bool {
	switch op {
	case OpChar, OpSet, OpAny, OpAnyNotNewline, OpAnyScalar, OpGrapheme, OpNewlineSequence, OpBackref:
		return true
	}
	return false
}

// AssertKind identifies a zero-width assertion.
type AssertKind uint8

const (
	AssertStartOfSubject AssertKind = iota
	AssertEndOfSubject
	AssertEndOfSubjectBeforeNewline
	AssertStartOfLine
	AssertEndOfLine
	AssertFirstMatchingPosition
	AssertWordBoundary
	AssertNotWordBoundary
	AssertTextSegment
	AssertNotTextSegment
)

var assertNames = [...]string{
	AssertStartOfSubject:            "startOfSubject",
	AssertEndOfSubject:              "endOfSubject",
	AssertEndOfSubjectBeforeNewline: "endOfSubjectBeforeNewline",
	AssertStartOfLine:               "startOfLine",
	AssertEndOfLine:                 "endOfLine",
	AssertFirstMatchingPosition:     "firstMatchingPosition",
	AssertWordBoundary:              "wordBoundary",
	AssertNotWordBoundary:           "notWordBoundary",
	AssertTextSegment:               "textSegment",
	AssertNotTextSegment:            "notTextSegment",
}

func (k AssertKind) String() string {
	if int(k) < len(assertNames) {
		return assertNames[k]
	}
	return fmt.Sprintf("Unknown(%d)", k)
}

// Inst is a single program instruction. The opcode determines which fields
// are valid.
type Inst struct {
	Op OpCode

	// Rune is the character of OpChar.
	Rune rune
	// Fold makes OpChar and OpBackref compare case-insensitively.
	Fold bool
	// Reverse makes a consuming instruction read the text before the
	// position and move backwards; used inside lookbehind.
	Reverse bool
	// ASCIIWord restricts word boundary assertions to ASCII word characters.
	ASCIIWord bool

	Assert AssertKind

	// Index is the character set, capture group or loop register operand.
	Index int

	// Target is the jump or resume target.
	Target InstID
}

func (in *Inst) format(sets []*CharSet) string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	switch in.Op {
	case OpChar:
		fmt.Fprintf(&b, " %q", in.Rune)
	case OpSet:
		fmt.Fprintf(&b, " %s", sets[in.Index])
	case OpAssert:
		fmt.Fprintf(&b, " %s", in.Assert)
	case OpSave, OpSaveFence, OpBranch:
		fmt.Fprintf(&b, " %d", in.Target)
	case OpCaptureStart, OpCaptureEnd, OpBackref, OpSetRegister:
		fmt.Fprintf(&b, " %d", in.Index)
	case OpCondCapture, OpCheckProgress:
		fmt.Fprintf(&b, " %d %d", in.Index, in.Target)
	}
	if in.Fold {
		b.WriteString(" (i)")
	}
	if in.Reverse {
		b.WriteString(" reverse")
	}
	return b.String()
}
