package syntax

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_SerializeUnchanged(t *testing.T) {
	src := "import x from 'x';\n\nfunction App() { return <div/>; }\n"
	doc := parseDoc(t, "a.jsx", src)
	FindCandidates(doc)

	assert.False(t, doc.Replaced())
	assert.Equal(t, src, doc.Serialize())
}

func TestDocument_ReplaceInsertsImport(t *testing.T) {
	src := "export function Widget() { return <span>{1+1}</span>; }\n"
	doc := parseDoc(t, "w.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 1)

	require.NoError(t, doc.Replace(cands[0].Slot, "function Widget() { return <span>2</span>; }"))
	assert.Equal(t, "React", doc.EnsureDefaultImport("react", "React"))

	want := "import React from \"react\";\nexport function Widget() { return <span>2</span>; }\n"
	assert.Equal(t, want, doc.Serialize())
}

func TestDocument_ImportAfterExistingImports(t *testing.T) {
	src := "import { useState } from 'react';\nimport './app.css';\n\nfunction App() { return <div/>; }\n"
	doc := parseDoc(t, "a.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 1)

	require.NoError(t, doc.Replace(cands[0].Slot, "function App() { return <p/>; }"))
	doc.EnsureDefaultImport("react", "React")

	want := "import { useState } from 'react';\nimport './app.css';\nimport React from \"react\";\n\nfunction App() { return <p/>; }\n"
	assert.Equal(t, want, doc.Serialize())
}

func TestDocument_ImportAfterDirective(t *testing.T) {
	src := "'use client';\nfunction App() { return <div/>; }\n"
	doc := parseDoc(t, "a.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 1)

	require.NoError(t, doc.Replace(cands[0].Slot, "function App() { return <p/>; }"))
	doc.EnsureDefaultImport("react", "React")

	assert.Equal(t, "'use client';\nimport React from \"react\";\nfunction App() { return <p/>; }\n", doc.Serialize())
}

func TestDocument_ReusesExistingBinding(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"default", "import R from 'react';\nfunction App() { return <div/>; }\n", "R"},
		{"default with named", "import React, { memo } from \"react\";\nfunction App() { return <div/>; }\n", "React"},
		{"namespace", "import * as Re from 'react';\nfunction App() { return <div/>; }\n", "Re"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "a.jsx", tt.src)
			cands := FindCandidates(doc)
			require.Len(t, cands, 1)
			require.NoError(t, doc.Replace(cands[0].Slot, "function App() { return <p/>; }"))

			assert.Equal(t, tt.want, doc.EnsureDefaultImport("react", "React"))
			out := doc.Serialize()
			assert.NotContains(t, out, `import React from "react";`)
			assert.Contains(t, out, "function App() { return <p/>; }")
		})
	}
}

func TestDocument_ReplaceErrors(t *testing.T) {
	doc := parseDoc(t, "a.jsx", "function App() { return <div/>; }\n")
	cands := FindCandidates(doc)
	require.Len(t, cands, 1)

	assert.ErrorIs(t, doc.Replace(7, "x"), ErrUnknownSlot)
	require.NoError(t, doc.Replace(cands[0].Slot, "function App() { return <a/>; }"))
	assert.ErrorIs(t, doc.Replace(cands[0].Slot, "function App() { return <b/>; }"), ErrSlotReplaced)

	_, err := doc.Text(-1)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestDocument_TextIsPristine(t *testing.T) {
	doc := parseDoc(t, "a.jsx", "function App() { return <div/>; }\n")
	cands := FindCandidates(doc)
	require.NoError(t, doc.Replace(cands[0].Slot, "function App() { return <a/>; }"))

	text, err := doc.Text(cands[0].Slot)
	require.NoError(t, err)
	assert.Equal(t, "function App() { return <div/>; }", text)
}

func TestDocument_EnclosingReplacementWins(t *testing.T) {
	src := "function Outer() {\n  function Inner() { return <b/>; }\n  return <Inner/>;\n}\n"
	doc := parseDoc(t, "a.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 2)

	require.NoError(t, doc.Replace(cands[1].Slot, "function Inner() { return <i/>; }"))
	require.NoError(t, doc.Replace(cands[0].Slot, "function Outer() { return <u/>; }"))

	assert.Equal(t, "function Outer() { return <u/>; }\n", doc.Serialize())
	assert.True(t, doc.Superseded(cands[1].Slot))
	assert.False(t, doc.Superseded(cands[0].Slot))
	assert.False(t, doc.Superseded(42))
}

func TestDocument_NestedAloneIsNotSuperseded(t *testing.T) {
	src := "function Outer() {\n  function Inner() { return <b/>; }\n  return <Inner/>;\n}\n"
	doc := parseDoc(t, "a.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 2)

	assert.False(t, doc.Superseded(cands[1].Slot))
	require.NoError(t, doc.Replace(cands[1].Slot, "function Inner() { return <i/>; }"))
	assert.False(t, doc.Superseded(cands[1].Slot))
	assert.Contains(t, doc.Serialize(), "function Inner() { return <i/>; }")
}

func TestDocument_ConcurrentDisjointReplacements(t *testing.T) {
	src := "function A() { return <a/>; }\nfunction B() { return <b/>; }\nfunction C() { return <c/>; }\n"
	doc := parseDoc(t, "a.jsx", src)
	cands := FindCandidates(doc)
	require.Len(t, cands, 3)

	var wg sync.WaitGroup
	for _, c := range cands {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, doc.Replace(c.Slot, "function "+c.Name+"() { return null; }"))
			doc.EnsureDefaultImport("react", "React")
		}()
	}
	wg.Wait()

	want := "import React from \"react\";\nfunction A() { return null; }\nfunction B() { return null; }\nfunction C() { return null; }\n"
	assert.Equal(t, want, doc.Serialize())
}
