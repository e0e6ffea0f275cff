// Package order は並び順に意味のある入力（ファイル・ページ・画像）を保持するコレクションを提供します。
package order

import (
	"slices"

	"github.com/google/uuid"
)

// Item はコレクションの要素です。ID は並び替えで変わりません。
// 位置はコレクション内のインデックスで決まり、要素自体には保持しません。
type Item[T any] struct {
	ID      string
	Payload T
}

// Collection は安定した識別子を持つ要素の順序付きリストです。
// すべての操作は同期的で、識別子の重複や欠落を生みません。並行利用は想定していません。
type Collection[T any] struct {
	items []Item[T]
	newID func() string
}

// New は空のコレクションを作成します。
func New[T any]() *Collection[T] {
	return &Collection[T]{newID: uuid.NewString}
}

// Of は payloads を順に挿入したコレクションを作成します。
func Of[T any](payloads ...T) *Collection[T] {
	c := New[T]()
	c.Insert(payloads...)
	return c
}

// Insert は末尾に要素を追加し、採番した ID を返します。
func (c *Collection[T]) Insert(payloads ...T) []string {
	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		id := c.generateID()
		c.items = append(c.items, Item[T]{ID: id, Payload: p})
		ids = append(ids, id)
	}
	return ids
}

// Remove は ID に一致する要素を削除します。存在しない場合は何もしません。
func (c *Collection[T]) Remove(id string) bool {
	idx := c.IndexOf(id)
	if idx < 0 {
		return false
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return true
}

// MoveToIndex は要素を target の位置へ移動し、間の要素を詰めます。
// target は [0, Len()-1] に丸められます。現在位置と同じ場合は何もしません。
func (c *Collection[T]) MoveToIndex(id string, target int) bool {
	from := c.IndexOf(id)
	if from < 0 {
		return false
	}
	target = clamp(target, 0, len(c.items)-1)
	if from == target {
		return false
	}

	item := c.items[from]
	if from < target {
		copy(c.items[from:target], c.items[from+1:target+1])
	} else {
		copy(c.items[target+1:from+1], c.items[target:from])
	}
	c.items[target] = item
	return true
}

// MoveOnto はドラッグ操作を表します。sourceID の要素が destID の要素の位置で止まったとみなし、
// 現在の並びと2つの ID だけから移動先を決めます。
func (c *Collection[T]) MoveOnto(sourceID, destID string) bool {
	if sourceID == destID {
		return false
	}
	dest := c.IndexOf(destID)
	if dest < 0 || c.IndexOf(sourceID) < 0 {
		return false
	}
	return c.MoveToIndex(sourceID, dest)
}

// IndexOf は ID の現在位置を返します。見つからない場合は -1 です。
func (c *Collection[T]) IndexOf(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Get は ID に対応する要素を返します。
func (c *Collection[T]) Get(id string) (Item[T], bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return Item[T]{}, false
	}
	return c.items[idx], true
}

// Len は要素数を返します。
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Items は現在の並びのコピーを返します。
func (c *Collection[T]) Items() []Item[T] {
	return append([]Item[T](nil), c.items...)
}

// IDs は現在の並びの ID を返します。
func (c *Collection[T]) IDs() []string {
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	return ids
}

// Payloads は現在の並び順で payload を返します。ジョブ送信時の入力になります。
func (c *Collection[T]) Payloads() []T {
	payloads := make([]T, len(c.items))
	for i, item := range c.items {
		payloads[i] = item.Payload
	}
	return payloads
}

func (c *Collection[T]) generateID() string {
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	for {
		id := c.newID()
		if c.IndexOf(id) < 0 {
			return id
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
