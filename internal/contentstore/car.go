package contentstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	defaultBlockSizeConstant        = int64(1 << 20)
	maximumLinksPerNodeConstant     = 1024
	unixfsFileTypeConstant          = 2
	unixfsTypeFieldConstant         = 1
	unixfsFileSizeFieldConstant     = 3
	unixfsBlockSizesFieldConstant   = 4
	dagNodeDataFieldConstant        = 1
	dagNodeLinksFieldConstant       = 2
	dagLinkHashFieldConstant        = 1
	dagLinkNameFieldConstant        = 2
	dagLinkSizeFieldConstant        = 3
	carVersionConstant              = 1
	cborMapOfTwoConstant            = 0xa2
	cborArrayOfOneConstant          = 0x81
	cborTextStringMajorConstant     = 0x60
	cborByteStringMajorConstant     = 0x40
	cborOneByteLengthConstant       = 0x18
	cborTwoByteLengthConstant       = 0x19
	cborLinkTagFirstByteConstant    = 0xd8
	cborLinkTagSecondByteConstant   = 0x2a
	cborInlineLengthLimitConstant   = 24
	cidLinkPrefixConstant           = 0x00
	carRootsKeyConstant             = "roots"
	carVersionKeyConstant           = "version"
	readBlockTemplateConstant       = "read block at offset %d: %w"
	hashBlockTemplateConstant       = "hash block: %w"
	emptyContentMessageConstant     = "cannot build a DAG for empty content"
	oversizedHeaderTemplateConstant = "CAR header of %d bytes does not fit"
)

var errEmptyContent = errors.New(emptyContentMessageConstant)

// dagBlock is one block of the file DAG. Leaf payloads stay on disk and are
// addressed by offset; interior nodes are held in memory.
type dagBlock struct {
	identifier  cid.Cid
	data        []byte
	offset      int64
	length      int64
	contentSize uint64
	treeSize    uint64
}

func (block dagBlock) sectionSize() int64 {
	payloadSize := uint64(len(block.identifier.Bytes())) + uint64(block.length)
	return int64(varint.UvarintSize(payloadSize)) + int64(payloadSize)
}

// fileDAG is a balanced UnixFS file with raw leaves. A single-block file is
// its own root.
type fileDAG struct {
	root   cid.Cid
	blocks []dagBlock
}

// buildFileDAG hashes content in blockSize leaves and links them under
// dag-pb nodes of at most maximumLinksPerNodeConstant children.
func buildFileDAG(content io.ReaderAt, size int64, blockSize int64) (fileDAG, error) {
	if size <= 0 {
		return fileDAG{}, errEmptyContent
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSizeConstant
	}

	leaves := make([]dagBlock, 0, (size+blockSize-1)/blockSize)
	buffer := make([]byte, blockSize)
	for offset := int64(0); offset < size; offset += blockSize {
		length := min(blockSize, size-offset)
		if _, readError := content.ReadAt(buffer[:length], offset); readError != nil && readError != io.EOF {
			return fileDAG{}, fmt.Errorf(readBlockTemplateConstant, offset, readError)
		}
		leafHash, hashError := multihash.Sum(buffer[:length], multihash.SHA2_256, -1)
		if hashError != nil {
			return fileDAG{}, fmt.Errorf(hashBlockTemplateConstant, hashError)
		}
		leaves = append(leaves, dagBlock{
			identifier:  cid.NewCidV1(cid.Raw, leafHash),
			offset:      offset,
			length:      length,
			contentSize: uint64(length),
			treeSize:    uint64(length),
		})
	}

	var interiorNodes []dagBlock
	level := leaves
	for len(level) > 1 {
		parents := make([]dagBlock, 0, (len(level)+maximumLinksPerNodeConstant-1)/maximumLinksPerNodeConstant)
		for start := 0; start < len(level); start += maximumLinksPerNodeConstant {
			parent, parentError := newFileNode(level[start:min(start+maximumLinksPerNodeConstant, len(level))])
			if parentError != nil {
				return fileDAG{}, parentError
			}
			parents = append(parents, parent)
		}
		interiorNodes = append(interiorNodes, parents...)
		level = parents
	}

	blocks := make([]dagBlock, 0, len(interiorNodes)+len(leaves))
	for index := len(interiorNodes) - 1; index >= 0; index-- {
		blocks = append(blocks, interiorNodes[index])
	}
	blocks = append(blocks, leaves...)
	return fileDAG{root: level[0].identifier, blocks: blocks}, nil
}

func newFileNode(children []dagBlock) (dagBlock, error) {
	var contentSize uint64
	var childTreeSize uint64
	unixfsData := protowire.AppendTag(nil, unixfsTypeFieldConstant, protowire.VarintType)
	unixfsData = protowire.AppendVarint(unixfsData, unixfsFileTypeConstant)
	for _, child := range children {
		contentSize += child.contentSize
		childTreeSize += child.treeSize
	}
	unixfsData = protowire.AppendTag(unixfsData, unixfsFileSizeFieldConstant, protowire.VarintType)
	unixfsData = protowire.AppendVarint(unixfsData, contentSize)

	var nodeData []byte
	for _, child := range children {
		unixfsData = protowire.AppendTag(unixfsData, unixfsBlockSizesFieldConstant, protowire.VarintType)
		unixfsData = protowire.AppendVarint(unixfsData, child.contentSize)

		link := protowire.AppendTag(nil, dagLinkHashFieldConstant, protowire.BytesType)
		link = protowire.AppendBytes(link, child.identifier.Bytes())
		link = protowire.AppendTag(link, dagLinkNameFieldConstant, protowire.BytesType)
		link = protowire.AppendString(link, "")
		link = protowire.AppendTag(link, dagLinkSizeFieldConstant, protowire.VarintType)
		link = protowire.AppendVarint(link, child.treeSize)

		nodeData = protowire.AppendTag(nodeData, dagNodeLinksFieldConstant, protowire.BytesType)
		nodeData = protowire.AppendBytes(nodeData, link)
	}
	// dag-pb orders links before data.
	nodeData = protowire.AppendTag(nodeData, dagNodeDataFieldConstant, protowire.BytesType)
	nodeData = protowire.AppendBytes(nodeData, unixfsData)

	nodeHash, hashError := multihash.Sum(nodeData, multihash.SHA2_256, -1)
	if hashError != nil {
		return dagBlock{}, fmt.Errorf(hashBlockTemplateConstant, hashError)
	}
	return dagBlock{
		identifier:  cid.NewCidV1(cid.DagProtobuf, nodeHash),
		data:        nodeData,
		length:      int64(len(nodeData)),
		contentSize: contentSize,
		treeSize:    uint64(len(nodeData)) + childTreeSize,
	}, nil
}

// encodeCARHeader renders the length-prefixed dag-cbor header
// {"roots": [root], "version": 1}.
func encodeCARHeader(root cid.Cid) []byte {
	linkBytes := append([]byte{cidLinkPrefixConstant}, root.Bytes()...)

	header := []byte{cborMapOfTwoConstant}
	header = appendCBORText(header, carRootsKeyConstant)
	header = append(header, cborArrayOfOneConstant, cborLinkTagFirstByteConstant, cborLinkTagSecondByteConstant)
	header = appendCBORLength(header, cborByteStringMajorConstant, len(linkBytes))
	header = append(header, linkBytes...)
	header = appendCBORText(header, carVersionKeyConstant)
	header = append(header, carVersionConstant)

	return append(varint.ToUvarint(uint64(len(header))), header...)
}

func appendCBORText(buffer []byte, text string) []byte {
	return append(appendCBORLength(buffer, cborTextStringMajorConstant, len(text)), text...)
}

func appendCBORLength(buffer []byte, major byte, length int) []byte {
	switch {
	case length < cborInlineLengthLimitConstant:
		return append(buffer, major|byte(length))
	case length <= 0xff:
		return append(buffer, major|cborOneByteLengthConstant, byte(length))
	default:
		return append(buffer, major|cborTwoByteLengthConstant, byte(length>>8), byte(length))
	}
}

// carPart is one independently uploadable CAR file. Every part repeats the
// header so the store attributes its blocks to the same root.
type carPart struct {
	header []byte
	blocks []dagBlock
	size   int64
}

// splitCAR packs blocks into parts no larger than limit. A block larger than
// the limit travels alone.
func splitCAR(dag fileDAG, limit int64) ([]carPart, error) {
	header := encodeCARHeader(dag.root)
	headerSize := int64(len(header))
	if limit > 0 && headerSize >= limit {
		return nil, fmt.Errorf(oversizedHeaderTemplateConstant, headerSize)
	}

	var parts []carPart
	current := carPart{header: header, size: headerSize}
	for _, block := range dag.blocks {
		sectionSize := block.sectionSize()
		if len(current.blocks) > 0 && limit > 0 && current.size+sectionSize > limit {
			parts = append(parts, current)
			current = carPart{header: header, size: headerSize}
		}
		current.blocks = append(current.blocks, block)
		current.size += sectionSize
	}
	return append(parts, current), nil
}

// reader streams the part, reading leaf payloads from content on demand.
func (part carPart) reader(content io.ReaderAt) io.Reader {
	readers := make([]io.Reader, 0, 1+2*len(part.blocks))
	readers = append(readers, bytes.NewReader(part.header))
	for _, block := range part.blocks {
		identifierBytes := block.identifier.Bytes()
		sectionPrefix := varint.ToUvarint(uint64(len(identifierBytes)) + uint64(block.length))
		readers = append(readers, bytes.NewReader(append(sectionPrefix, identifierBytes...)))
		if block.data != nil {
			readers = append(readers, bytes.NewReader(block.data))
			continue
		}
		readers = append(readers, io.NewSectionReader(content, block.offset, block.length))
	}
	return io.MultiReader(readers...)
}
