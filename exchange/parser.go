package exchange

import (
	"encoding/binary"
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ncbi/uttp/tree"
	"github.com/ncbi/uttp/uttp"
)

// container is an open list or map. Open containers form a stack addressed
// by depth; a container becomes a tree node, attached to the one below it,
// when its closing bracket arrives.
type container struct {
	kind tree.Kind
	seq  tree.Seq
	m    tree.Map
	// key is the parent map key this container will be stored under.
	key string
}

func (c *container) node() tree.Node {
	if c.kind == tree.KindMap {
		return c.m
	}
	if c.seq == nil {
		return tree.Seq{}
	}
	return c.seq
}

// Parser turns a UTTP token stream into trees. It is fed with whatever bytes
// the transport produced and reports a tree each time a message completes,
// which makes it usable from both blocking and event-driven I/O loops.
type Parser struct {
	r          *uttp.Reader
	opts       Options
	binaryKeys mapset.Set[string]

	stack    []container
	root     tree.Node
	complete bool

	key    string
	hasKey bool

	chunk       []byte
	inChunk     bool
	floatSymbol byte

	start uint64
	err   error
}

func NewParser(opts Options) *Parser {
	opts = opts.withDefaults()
	return &Parser{
		r:          uttp.NewReader(),
		opts:       opts,
		binaryKeys: opts.binaryKeySet(),
	}
}

// Offset returns the number of bytes consumed from the stream.
func (p *Parser) Offset() uint64 {
	return p.r.Offset()
}

// InProgress reports whether part of a message has been consumed.
func (p *Parser) InProgress() bool {
	return p.r.Offset() > p.start
}

// Feed consumes buf. When buf completes a message, the message is returned
// with complete set; buf must not contain anything after the end of that
// message. Any error is final: the parser returns it from every later call.
func (p *Parser) Feed(buf []byte) (tree.Node, bool, error) {
	if p.err != nil {
		return nil, false, p.err
	}
	p.r.SetNewBuf(buf)
	n, complete, err := p.run()
	if err == nil && complete && p.r.Buffered() > 0 {
		err = p.protocolError(ErrTrailingData, 0)
	}
	if err != nil {
		p.err = err
		return nil, false, err
	}
	return n, complete, nil
}

func (p *Parser) run() (tree.Node, bool, error) {
	for {
		tok, err := p.r.NextEvent()
		if err != nil {
			return nil, false, err
		}
		if p.opts.MaxMessageSize > 0 && p.r.Offset()-p.start > uint64(p.opts.MaxMessageSize) {
			return nil, false, p.protocolError(ErrMessageTooLarge, 0)
		}

		switch tok.Kind {
		case uttp.EndOfBuffer:
			return nil, false, nil
		case uttp.ChunkPart:
			p.chunk = append(p.chunk, tok.Data...)
			p.inChunk = true
		case uttp.Chunk:
			data := append(p.chunk, tok.Data...)
			if data == nil {
				data = []byte{}
			}
			p.chunk = nil
			p.inChunk = false
			err = p.handleChunk(data)
		case uttp.Number:
			if p.inChunk {
				return nil, false, p.protocolError(ErrChunkInterrupted, 0)
			}
			err = p.addScalar(tree.Int(tok.Number))
		case uttp.ControlSymbol:
			if p.inChunk {
				return nil, false, p.protocolError(ErrChunkInterrupted, tok.Symbol)
			}
			if tok.Symbol == EndOfMessage {
				n, err := p.finish()
				return n, err == nil, err
			}
			err = p.handleSymbol(tok.Symbol)
		}
		if err != nil {
			return nil, false, err
		}
	}
}

func (p *Parser) handleSymbol(sym byte) error {
	switch sym {
	case SymListOpen:
		return p.open(tree.KindSeq, sym)
	case SymMapOpen:
		return p.open(tree.KindMap, sym)
	case SymListClose:
		return p.close(tree.KindSeq, sym)
	case SymMapClose:
		return p.close(tree.KindMap, sym)
	case SymTrue:
		return p.addScalar(tree.Bool(true))
	case SymFalse:
		return p.addScalar(tree.Bool(false))
	case SymNull:
		return p.addScalar(tree.Null{})
	case SymFloatBE, SymFloatLE:
		// reject a float key before its bytes are read
		if err := p.checkSlot(tree.KindFloat, sym); err != nil {
			return err
		}
		p.floatSymbol = sym
		return p.r.ReadRawData(8)
	default:
		return p.protocolError(ErrUnknownSymbol, sym)
	}
}

func (p *Parser) handleChunk(data []byte) error {
	if p.floatSymbol != 0 {
		return p.finishFloat(data)
	}
	if cur := p.current(); cur != nil && cur.kind == tree.KindMap && !p.hasKey {
		p.key = string(data)
		p.hasKey = true
		return nil
	}
	if p.opts.BinaryValues || (p.hasKey && p.binaryKeys.Contains(p.key)) {
		return p.addScalar(tree.Bytes(data))
	}
	return p.addScalar(tree.String(data))
}

func (p *Parser) finishFloat(data []byte) error {
	sym := p.floatSymbol
	p.floatSymbol = 0
	if len(data) != 8 {
		return p.protocolError(ErrBadFloatLength, sym)
	}
	var order binary.ByteOrder = binary.BigEndian
	if sym == SymFloatLE {
		order = binary.LittleEndian
	}
	return p.addScalar(tree.Float(math.Float64frombits(order.Uint64(data))))
}

func (p *Parser) open(kind tree.Kind, sym byte) error {
	if err := p.checkSlot(kind, sym); err != nil {
		return err
	}
	if len(p.stack) >= p.opts.MaxDepth {
		return p.protocolError(ErrTooDeep, sym)
	}
	c := container{kind: kind, key: p.key}
	if kind == tree.KindMap {
		c.m = make(tree.Map)
	}
	p.key = ""
	p.hasKey = false
	p.stack = append(p.stack, c)
	return nil
}

func (p *Parser) close(kind tree.Kind, sym byte) error {
	cur := p.current()
	if cur == nil {
		return p.protocolError(ErrUnexpectedClose, sym)
	}
	if cur.kind != kind {
		return p.protocolError(ErrMismatchedBracket, sym)
	}
	if p.hasKey {
		return p.protocolError(ErrMissingValue, sym)
	}
	n, key := cur.node(), cur.key
	p.stack[len(p.stack)-1] = container{}
	p.stack = p.stack[:len(p.stack)-1]
	p.key = key
	p.attach(n)
	return nil
}

func (p *Parser) addScalar(n tree.Node) error {
	if err := p.checkSlot(n.Kind(), 0); err != nil {
		return err
	}
	p.attach(n)
	return nil
}

// checkSlot verifies that a value of the given kind may come next.
func (p *Parser) checkSlot(kind tree.Kind, sym byte) error {
	if p.complete {
		return p.protocolError(ErrExtraToken, sym)
	}
	cur := p.current()
	if cur != nil && cur.kind == tree.KindMap && !p.hasKey {
		if kind == tree.KindFloat {
			return p.protocolError(ErrFloatKey, sym)
		}
		return p.protocolError(ErrNonStringKey, sym)
	}
	return nil
}

// attach stores a finished value in the innermost open container, or makes it
// the message root.
func (p *Parser) attach(n tree.Node) {
	cur := p.current()
	switch {
	case cur == nil:
		p.root = n
		p.complete = true
	case cur.kind == tree.KindMap:
		cur.m[p.key] = n
		p.key = ""
		p.hasKey = false
	default:
		cur.seq = append(cur.seq, n)
	}
}

func (p *Parser) current() *container {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *Parser) finish() (tree.Node, error) {
	if len(p.stack) > 0 {
		return nil, p.protocolError(ErrUnterminatedContainer, EndOfMessage)
	}
	if !p.complete {
		return nil, p.protocolError(ErrEmptyMessage, EndOfMessage)
	}
	n := p.root
	p.resetMessage()
	return n, nil
}

func (p *Parser) resetMessage() {
	p.stack = p.stack[:0]
	p.root = nil
	p.complete = false
	p.key = ""
	p.hasKey = false
	p.start = p.r.Offset()
}

func (p *Parser) protocolError(kind error, sym byte) error {
	return &ProtocolError{
		Kind:   kind,
		Offset: p.r.Offset(),
		Symbol: sym,
	}
}
