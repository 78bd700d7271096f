// Read Path: serves READ commands straight from the in-memory index
// without taking the mutation mutex, relying on the append-only,
// in-place-flag-only invariant for safety (spec §4.6, §5).
//
// The zero-copy/inline split and the "clip to remaining capacity" rule
// follow the teacher's own bounded io.SectionReader reads
// (_examples/jpl-au-folio/read.go's `line` helper), generalised from
// newline-delimited records to a fixed offset/size descriptor.
package ledger

// ReadRequest describes one READ command (spec §4.6).
type ReadRequest struct {
	ID      ObjectID
	History bool // selects kind=1 instead of kind=0
	Offset  int64
	Size    int64 // 0 means "the record's full stored size"
}

// ReadReply is the result of a READ. Exactly one of Descriptor or
// Inline is populated, selected by the caller's buffer capacity.
type ReadReply struct {
	// Descriptor is populated for the zero-copy reply mode: the network
	// layer fills the reply body directly from (Fd, Offset, Size).
	Descriptor *ReadDescriptor
	// Inline is populated for the inline reply mode: the payload bytes
	// themselves, already clipped to the requested capacity.
	Inline []byte
}

// ReadDescriptor is a zero-copy reply: the blob file descriptor plus the
// byte range within it to send (spec §4.6 step 5).
type ReadDescriptor struct {
	Fd     uintptr
	Offset int64
	Size   int64
}

// Read implements the READ command (spec §4.6). capacity is the number
// of bytes the caller's attribute buffer has room for; capacity <= 0
// requests the zero-copy descriptor mode, matching "the request's
// attribute buffer has room only for the io descriptor".
func (b *Backend) Read(req ReadRequest, capacity int) (ReadReply, error) {
	kind := KindData
	if req.History {
		kind = KindHistory
	}
	key := Key{ID: req.ID, Kind: kind}
	lp := b.logForKind(kind)

	// Fast negative: a bloom miss means req.ID was definitely never
	// appended live to this log, so the hash-table Lookup below can be
	// skipped entirely (spec SPEC_FULL.md §C).
	if !lp.MaybeContains(req.ID) {
		return ReadReply{}, ErrNotFound
	}

	rc, ok := b.index.Lookup(key)
	if !ok {
		return ReadReply{}, ErrNotFound
	}

	size := req.Size
	if size == 0 {
		size = rc.Size
	}
	offset := rc.Offset + DCHSize + req.Offset

	if capacity <= 0 {
		return ReadReply{Descriptor: &ReadDescriptor{
			Fd:     lp.BlobFd(),
			Offset: offset,
			Size:   size,
		}}, nil
	}

	if size > int64(capacity) {
		size = int64(capacity)
	}
	payload, err := lp.ReadPayload(offset, size)
	if err != nil {
		return ReadReply{}, err
	}
	return ReadReply{Inline: payload}, nil
}
