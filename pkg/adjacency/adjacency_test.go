package adjacency

import (
	"testing"

	"github.com/arangoml/phenolrs-go/pkg/edge"
	"github.com/arangoml/phenolrs-go/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestBuilderSimpleUndirectedMirrors(t *testing.T) {
	b := NewBuilder(model.GraphConfig{IsDirected: false, IsMultigraph: false, LoadAdjDict: true})
	b.Add(edge.Result{SrcID: "person/1", DstID: "person/2", Attrs: model.AttrMap{"w": 1.0}})

	dict := b.Dict()
	assert.Equal(t, model.ShapeSimpleUndirected, dict.Shape)
	assert.Equal(t, 1.0, dict.Simple["person/1"]["person/2"]["w"])
	assert.Equal(t, 1.0, dict.Simple["person/2"]["person/1"]["w"])
}

func TestBuilderMultiDirectedKeepsEdgeIndex(t *testing.T) {
	b := NewBuilder(model.GraphConfig{IsDirected: true, IsMultigraph: true, LoadAdjDict: true})
	b.Add(edge.Result{SrcID: "a", DstID: "b", EdgeIndex: 0})
	b.Add(edge.Result{SrcID: "a", DstID: "b", EdgeIndex: 1})

	dict := b.Dict()
	assert.Len(t, dict.MultiSucc["a"]["b"], 2)
	assert.Len(t, dict.MultiPred["b"]["a"], 2)
}

func TestBuilderNoOpWhenAdjDictNotRequested(t *testing.T) {
	b := NewBuilder(model.GraphConfig{LoadAdjDict: false})
	b.Add(edge.Result{SrcID: "a", DstID: "b"})

	dict := b.Dict()
	assert.Empty(t, dict.Simple)
}

func TestBuilderLastWriteWinsOnRepeatedSimpleEdge(t *testing.T) {
	b := NewBuilder(model.GraphConfig{IsDirected: false, IsMultigraph: false, LoadAdjDict: true})
	b.Add(edge.Result{SrcID: "a", DstID: "b", Attrs: model.AttrMap{"w": 1.0}})
	b.Add(edge.Result{SrcID: "a", DstID: "b", Attrs: model.AttrMap{"w": 2.0}})

	assert.Equal(t, 2.0, b.Dict().Simple["a"]["b"]["w"])
}
