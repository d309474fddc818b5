package romfs

import (
	"encoding/binary"
	"time"

	"github.com/maskedw/picox-sub001/xerr"
)

// BuildNode describes one entry to be packed into a ROM FS image by
// Build. A file node has Content set and Children nil; a directory
// node has Children set (possibly empty) and Content nil.
type BuildNode struct {
	Name     string
	Mtime    time.Time
	Content  []byte
	Children []*BuildNode
}

// NewFile returns a file BuildNode.
func NewFile(name string, content []byte, mtime time.Time) *BuildNode {
	return &BuildNode{Name: name, Content: content, Mtime: mtime}
}

// NewDir returns a directory BuildNode with the given children.
func NewDir(name string, children ...*BuildNode) *BuildNode {
	if children == nil {
		children = []*BuildNode{}
	}
	return &BuildNode{Name: name, Children: children}
}

// Build packs root (which must be a directory, typically unnamed,
// standing for the image's "/") into a ROM FS image byte slice per
// spec §6: magic header, root directory record, then every other
// directory record in breadth-first order, then file content in the
// same order.
func Build(root *BuildNode) ([]byte, error) {
	if root.Children == nil {
		return nil, xerr.Wrap(xerr.Invalid, "romfs.Build: root must be a directory")
	}

	dirOffset := map[*BuildNode]int{}
	var dirOrder []*BuildNode
	cursor := headerSize
	queue := []*BuildNode{root}

	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		dirOffset[d] = cursor
		dirOrder = append(dirOrder, d)
		cursor += 4 + len(d.Children)*entrySize

		for _, c := range d.Children {
			if len(c.Name) > NameMax {
				return nil, xerr.Wrap(xerr.NameTooLong, "romfs.Build: name %q exceeds NameMax", c.Name)
			}
			if c.Children != nil {
				queue = append(queue, c)
			}
		}
	}

	contentOffset := map[*BuildNode]int{}
	for _, d := range dirOrder {
		for _, c := range d.Children {
			if c.Children == nil {
				contentOffset[c] = cursor
				cursor += len(c.Content)
			}
		}
	}

	image := make([]byte, cursor)
	copy(image[0:4], Magic)
	binary.LittleEndian.PutUint32(image[4:8], Version)
	binary.LittleEndian.PutUint32(image[8:12], uint32(dirOffset[root]))

	for _, d := range dirOrder {
		off := dirOffset[d]
		binary.LittleEndian.PutUint32(image[off:off+4], uint32(len(d.Children)))
		for i, c := range d.Children {
			writeBuildEntry(image, off+4+i*entrySize, c, dirOffset, contentOffset)
		}
	}
	for _, d := range dirOrder {
		for _, c := range d.Children {
			if c.Children == nil {
				o := contentOffset[c]
				copy(image[o:o+len(c.Content)], c.Content)
			}
		}
	}

	return image, nil
}

func writeBuildEntry(image []byte, off int, c *BuildNode, dirOffset, contentOffset map[*BuildNode]int) {
	b := image[off : off+entrySize]
	copy(b[0:nameField], c.Name)

	if c.Children != nil {
		b[nameField] = byte(typeDir)
		binary.LittleEndian.PutUint32(b[nameField+4:nameField+8], uint32(dirOffset[c]))
	} else {
		b[nameField] = byte(typeFile)
		binary.LittleEndian.PutUint32(b[nameField+4:nameField+8], uint32(len(c.Content)))
		binary.LittleEndian.PutUint32(b[nameField+16:nameField+20], uint32(contentOffset[c]))
	}
	binary.LittleEndian.PutUint64(b[nameField+8:nameField+16], uint64(c.Mtime.Unix()))
}
