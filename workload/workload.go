// Package workload describes the sequences of reads and writes that drive a
// cache.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// OpKind tells reads and writes apart.
type OpKind int

// The kinds of operations.
const (
	Read OpKind = iota
	Write
)

func (k OpKind) String() string {
	switch k {
	case Read:
		return "R"
	case Write:
		return "W"
	default:
		return "?"
	}
}

// An Op is a single byte access.
type Op struct {
	Kind    OpKind
	Address uint64
	Value   byte
}

func (op Op) String() string {
	if op.Kind == Write {
		return fmt.Sprintf("W 0x%x 0x%x", op.Address, op.Value)
	}

	return fmt.Sprintf("R 0x%x", op.Address)
}

// Parse reads one operation per line. A line is either "R <address>" or
// "W <address> <value>". Numbers are decimal or 0x-prefixed hex. Blank lines
// and text after '#' are ignored.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		op, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		ops = append(ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ops, nil
}

func parseFields(fields []string) (Op, error) {
	switch strings.ToUpper(fields[0]) {
	case "R":
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("read takes 1 operand, got %d", len(fields)-1)
		}

		addr, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return Op{}, fmt.Errorf("bad address %q: %w", fields[1], err)
		}

		return Op{Kind: Read, Address: addr}, nil
	case "W":
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("write takes 2 operands, got %d", len(fields)-1)
		}

		addr, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return Op{}, fmt.Errorf("bad address %q: %w", fields[1], err)
		}

		value, err := strconv.ParseUint(fields[2], 0, 8)
		if err != nil {
			return Op{}, fmt.Errorf("bad value %q: %w", fields[2], err)
		}

		return Op{Kind: Write, Address: addr, Value: byte(value)}, nil
	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
}

// Demo returns the short sequence used by the demo command: a cold read, a
// write miss and a read that hits the written line.
func Demo() []Op {
	return []Op{
		{Kind: Read, Address: 0x00},
		{Kind: Write, Address: 0x03, Value: 0x01},
		{Kind: Read, Address: 0x03},
	}
}

// A Generator produces random operations.
type Generator struct {
	Rand *rand.Rand

	// AddressBits bounds the generated addresses to [0, 2^AddressBits).
	AddressBits int

	// WriteRatio is the probability of an operation being a write.
	WriteRatio float64
}

// Generate returns n random operations.
func (g Generator) Generate(n int) ([]Op, error) {
	if g.Rand == nil {
		return nil, fmt.Errorf("generator requires a random source")
	}

	if g.AddressBits < 1 || g.AddressBits > 63 {
		return nil, fmt.Errorf("generator address bits %d not in [1, 63]",
			g.AddressBits)
	}

	if g.WriteRatio < 0 || g.WriteRatio > 1 {
		return nil, fmt.Errorf("write ratio %v not in [0, 1]", g.WriteRatio)
	}

	ops := make([]Op, n)
	space := int64(1) << g.AddressBits

	for i := range ops {
		ops[i].Address = uint64(g.Rand.Int63n(space))

		if g.Rand.Float64() < g.WriteRatio {
			ops[i].Kind = Write
			ops[i].Value = byte(g.Rand.Intn(256))
		}
	}

	return ops, nil
}

// A Target is anything that serves byte reads and writes.
type Target interface {
	Read(address uint64) (byte, error)
	Write(address uint64, value byte) (byte, error)
}

// A Result is the outcome of one operation.
type Result struct {
	Index int
	Op    Op
	Value byte
}

// Run applies ops to target in order. visit, if not nil, sees every
// successful result. Run stops at the first failing operation and reports
// its position.
func Run(target Target, ops []Op, visit func(Result)) error {
	for i, op := range ops {
		var (
			value byte
			err   error
		)

		switch op.Kind {
		case Read:
			value, err = target.Read(op.Address)
		case Write:
			value, err = target.Write(op.Address, op.Value)
		default:
			err = fmt.Errorf("unknown operation kind %d", op.Kind)
		}

		if err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op, err)
		}

		if visit != nil {
			visit(Result{Index: i, Op: op, Value: value})
		}
	}

	return nil
}
