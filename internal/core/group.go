package core

import (
	"fmt"
	"sort"
)

// Link is a named hard link from a group to an object header.
type Link struct {
	Name    string
	Address uint64
}

// GroupLinks extracts the hard links of a group with compact link storage.
// Soft, external and user-defined links are skipped. Old-style groups
// (symbol table) and dense link storage return ErrUnsupported.
func GroupLinks(oh *ObjectHeader, sb *Superblock) ([]Link, error) {
	if oh.Find(MsgSymbolTable) != nil {
		return nil, fmt.Errorf("%w: symbol table group", ErrUnsupported)
	}

	info := oh.Find(MsgLinkInfo)
	if info == nil {
		return nil, fmt.Errorf("%w: object at %d is not a group", ErrCorrupt, oh.Address)
	}
	lim, err := ParseLinkInfoMessage(info.Data, sb)
	if err != nil {
		return nil, err
	}
	if lim.IsDense(sb) {
		return nil, fmt.Errorf("%w: dense link storage", ErrUnsupported)
	}
	if gi := oh.Find(MsgGroupInfo); gi != nil {
		if _, err := ParseGroupInfoMessage(gi.Data); err != nil {
			return nil, err
		}
	}

	var links []Link
	seen := make(map[string]bool)
	for _, msg := range oh.FindAll(MsgLinkMessage) {
		lm, err := ParseLinkMessage(msg.Data, sb)
		if err != nil {
			return nil, err
		}
		if !lm.IsHard() {
			continue
		}
		if seen[lm.Name] {
			return nil, fmt.Errorf("%w: duplicate link %q", ErrCorrupt, lm.Name)
		}
		seen[lm.Name] = true
		links = append(links, Link{Name: lm.Name, Address: lm.ObjectAddress})
	}

	return links, nil
}

// NewGroupHeader builds the object header of a group holding links in
// compact storage. Links are written in name order.
func NewGroupHeader(links []Link) (*ObjectHeaderWriter, error) {
	sorted := make([]Link, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	ohw := NewObjectHeaderWriter()
	ohw.Add(MsgLinkInfo, 0, EncodeLinkInfo())
	ohw.Add(MsgGroupInfo, 0, EncodeGroupInfo())

	for _, l := range sorted {
		data, err := EncodeHardLink(l.Name, l.Address)
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", l.Name, err)
		}
		ohw.Add(MsgLinkMessage, 0, data)
	}

	return ohw, nil
}
