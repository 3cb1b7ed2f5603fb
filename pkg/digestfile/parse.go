package digestfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/digup-project/digup/pkg/digest"
	"github.com/digup-project/digup/pkg/escapefmt"
)

// PersistentOptions carries the "#: option" comments a digest file records,
// so that a subsequent write can reproduce them (spec.md §4.3/§4.4).
type PersistentOptions struct {
	// ExcludeMarker is the configured exclude-marker name, if any.
	ExcludeMarker string
	// HasExcludeMarker reports whether ExcludeMarker was set by an option
	// comment (as opposed to being the empty default).
	HasExcludeMarker bool
}

// ParseOptions controls Parse's behavior.
type ParseOptions struct {
	// Restrict, if non-empty, is the substring filter applied after load:
	// any record whose path does not contain it is marked StatusSkipped
	// (spec.md §4.3, "Restrict filter").
	Restrict string
	// SkipCRCVerification disables the trailer CRC check entirely. It
	// exists for the interactive recovery path (SPEC_FULL.md §5.2): after
	// prompting the operator on a CRCMismatchError and getting "yes,
	// continue anyway," the caller re-parses with this set.
	SkipCRCVerification bool
	// BatchMode records whether the caller runs in batch mode. It has no
	// effect on Parse itself, which always returns CRCMismatchError on a
	// mismatch regardless of mode; the caller decides whether to abort or
	// to retry with SkipCRCVerification.
	BatchMode bool
}

// Result is everything Parse recovers from a digest file.
type Result struct {
	Table    *Table
	Options  PersistentOptions
	Warnings []string
}

// parser holds the mutable state threaded through a single Parse call.
type parser struct {
	opts ParseOptions
	crc  runningCRC

	table           *Table
	persistent      PersistentOptions
	digestByteSize  int
	haveDigestSize  bool
	lineNumber      int
	eofSeen         bool
	warnings        []string

	// Buffered metadata, reset after every commit, per spec.md §4.3.
	bufMtime        *int64
	bufSize         *int64
	bufTarget       *string
}

// Parse reads a digest file in its entirety, in the line-oriented format
// described by spec.md §4.3 and §6, and returns the populated record table.
func Parse(r io.Reader, opts ParseOptions) (*Result, error) {
	p := &parser{
		opts:  opts,
		table: NewTable(),
	}

	reader := bufio.NewReader(r)
	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) == 0 && readErr != nil {
			break
		}
		p.lineNumber++

		crcBefore := p.crc.snapshot()
		p.crc.update(raw)

		content := strings.TrimSuffix(strings.TrimSuffix(string(raw), "\n"), "\r")

		if err := p.processLine(content, crcBefore); err != nil {
			return nil, err
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, errors.Wrap(readErr, "unable to read digest file")
		}
	}

	if p.opts.Restrict != "" {
		p.applyRestrict()
	}

	return &Result{
		Table:    p.table,
		Options:  p.persistent,
		Warnings: p.warnings,
	}, nil
}

func (p *parser) warn(message string) {
	p.warnings = append(p.warnings, message)
}

func (p *parser) processLine(line string, crcBefore uint32) error {
	if line == "" {
		return nil
	}

	if p.eofSeen {
		p.warn("content follows the eof trailer and was ignored: " + line)
		return nil
	}

	if strings.HasPrefix(line, "#:") {
		return p.processMetadata(strings.TrimPrefix(line, "#:"), crcBefore)
	}

	if strings.HasPrefix(line, "#") {
		// Ordinary comment; ignored.
		return nil
	}

	return p.processRecordLine(line)
}

// processMetadata handles a single "#:" line, which may carry a sequence of
// whitespace-separated key-value pairs (spec.md §4.3). Keys whose value
// syntax is "to EOL" (option, target[\], symlink[\]) consume the remainder
// of the line and terminate processing; mtime, size, and crc consume only
// their own token and allow further keys to follow on the same line, which
// is how the serializer packs "mtime N size N" (and, on the trailer,
// "crc 0x... eof") onto one line. eof ends processing of the line.
func (p *parser) processMetadata(rest string, crcBefore uint32) error {
	rest = strings.TrimPrefix(rest, " ")
	for rest != "" {
		key, remainder := splitToken(rest)
		switch key {
		case "option":
			value := strings.TrimPrefix(remainder, " ")
			if !strings.HasPrefix(value, "--exclude-marker=") {
				return &ErrUnknownLine{Line: p.lineNumber, Text: "#: option " + value}
			}
			name := strings.TrimPrefix(value, "--exclude-marker=")
			if name == "" {
				return &ErrUnknownLine{Line: p.lineNumber, Text: "#: option --exclude-marker= (empty name)"}
			}
			p.persistent.ExcludeMarker = name
			p.persistent.HasExcludeMarker = true
			return nil

		case "mtime":
			token, next := splitToken(strings.TrimPrefix(remainder, " "))
			value, err := strconv.ParseInt(token, 10, 64)
			if err != nil || value < 0 {
				return &ErrUnknownLine{Line: p.lineNumber, Text: "#: mtime " + token}
			}
			p.bufMtime = &value
			rest = strings.TrimPrefix(next, " ")
			continue

		case "size":
			token, next := splitToken(strings.TrimPrefix(remainder, " "))
			value, err := strconv.ParseInt(token, 10, 64)
			if err != nil || value < 0 {
				return &ErrUnknownLine{Line: p.lineNumber, Text: "#: size " + token}
			}
			p.bufSize = &value
			rest = strings.TrimPrefix(next, " ")
			continue

		case "target":
			value := strings.TrimPrefix(remainder, " ")
			p.bufTarget = &value
			return nil

		case "target\\":
			value, err := escapefmt.Decode(strings.TrimPrefix(remainder, " "))
			if err != nil {
				return &ErrEscapeDecode{Line: p.lineNumber, Err: err}
			}
			p.bufTarget = &value
			return nil

		case "symlink":
			return p.commitSymlink(strings.TrimPrefix(remainder, " "))

		case "symlink\\":
			path, err := escapefmt.Decode(strings.TrimPrefix(remainder, " "))
			if err != nil {
				return &ErrEscapeDecode{Line: p.lineNumber, Err: err}
			}
			return p.commitSymlink(path)

		case "crc":
			token, next := splitToken(strings.TrimPrefix(remainder, " "))
			expected, err := parseCRCHex(token)
			if err != nil {
				return &ErrUnknownLine{Line: p.lineNumber, Text: "#: crc " + token}
			}
			if !p.opts.SkipCRCVerification && expected != crcBefore {
				return &CRCMismatchError{Line: p.lineNumber, Expected: expected, Actual: crcBefore}
			}
			rest = strings.TrimPrefix(next, " ")
			continue

		case "eof":
			p.eofSeen = true
			return nil

		default:
			return &ErrUnknownLine{Line: p.lineNumber, Text: "#:" + rest}
		}
	}
	return nil
}

// splitToken splits s at its first space byte, returning the first token
// and everything after it (without that one separating space).
func splitToken(s string) (token, remainder string) {
	idx := strings.IndexByte(s, ' ')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

func parseCRCHex(token string) (uint32, error) {
	if !strings.HasPrefix(token, "0x") || len(token) != 10 {
		return 0, errors.New("malformed crc token")
	}
	value, err := strconv.ParseUint(token[2:], 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}

// commitSymlink commits a buffered symlink record at path, consuming and
// resetting the buffered mtime/size/target.
func (p *parser) commitSymlink(path string) error {
	if _, exists := p.table.Get(path); exists {
		return &ErrDuplicatePath{Line: p.lineNumber, Path: path}
	}

	record := &Record{
		Status:           StatusUnseen,
		ModificationTime: derefInt64(p.bufMtime),
		Size:             derefInt64Default(p.bufSize, SizeUnknown),
		SymlinkTarget:    derefString(p.bufTarget),
	}
	p.table.Insert(path, record)
	p.resetBuffers()
	return nil
}

// processRecordLine handles a digest-record line: optional leading escape
// marker, hex digest, one whitespace, type byte, path to EOL.
func (p *parser) processRecordLine(line string) error {
	escaped := false
	if strings.HasPrefix(line, "\\") {
		escaped = true
		line = line[1:]
	}

	spaceIdx := strings.IndexAny(line, " ")
	if spaceIdx < 0 {
		return &ErrMalformedRecord{Line: p.lineNumber, Reason: "missing separator between digest and path"}
	}
	hexDigest := line[:spaceIdx]
	rest := line[spaceIdx:]

	if !isHexOfValidLength(hexDigest) {
		return &ErrMalformedRecord{Line: p.lineNumber, Reason: "digest is not 32/40/64/128 hex characters"}
	}

	if len(rest) < 2 || (rest[1] != ' ' && rest[1] != '*') {
		return &ErrMalformedRecord{Line: p.lineNumber, Reason: "missing type byte"}
	}
	path := rest[2:]
	if path == "" {
		return &ErrMalformedRecord{Line: p.lineNumber, Reason: "empty path"}
	}

	if escaped {
		decoded, err := escapefmt.Decode(path)
		if err != nil {
			return &ErrEscapeDecode{Line: p.lineNumber, Err: err}
		}
		path = decoded
	} else {
		path = normalizeSlashes(path)
	}

	d, err := digest.FromHex(hexDigest)
	if err != nil {
		return &ErrMalformedRecord{Line: p.lineNumber, Reason: "invalid hex digest"}
	}

	if p.haveDigestSize {
		if d.Size() != p.digestByteSize {
			return &ErrAlgorithmMismatch{Line: p.lineNumber, FirstSize: p.digestByteSize, MismatchSize: d.Size()}
		}
	} else {
		p.digestByteSize = d.Size()
		p.haveDigestSize = true
	}

	if _, exists := p.table.Get(path); exists {
		return &ErrDuplicatePath{Line: p.lineNumber, Path: path}
	}

	record := &Record{
		Status:           StatusUnseen,
		ModificationTime: derefInt64(p.bufMtime),
		Size:             derefInt64Default(p.bufSize, SizeUnknown),
		Digest:           d,
	}
	p.table.Insert(path, record)
	p.resetBuffers()
	return nil
}

func (p *parser) resetBuffers() {
	p.bufMtime = nil
	p.bufSize = nil
	p.bufTarget = nil
}

// applyRestrict marks every record whose path doesn't contain the restrict
// substring as StatusSkipped (spec.md §4.3).
func (p *parser) applyRestrict() {
	p.table.Range(func(path string, record *Record) bool {
		if !strings.Contains(path, p.opts.Restrict) {
			record.Status = StatusSkipped
		}
		return true
	})
}

func isHexOfValidLength(s string) bool {
	switch len(s) {
	case 32, 40, 64, 128:
	default:
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// normalizeSlashes converts backslash path separators to forward slashes,
// per spec.md §6: "on systems that deliver backslashes natively they are
// normalized to forward slashes at parse time."
func normalizeSlashes(path string) string {
	if !strings.ContainsRune(path, '\\') {
		return path
	}
	return strings.ReplaceAll(path, "\\", "/")
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt64Default(p *int64, fallback int64) int64 {
	if p == nil {
		return fallback
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
