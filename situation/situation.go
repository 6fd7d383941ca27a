// Package situation 维护处境知识库：每种处境有益的活动标签与应回避的标签。
// 请求只带处境 ID 时，由知识库展开为处境标签，并给出回避标签供过滤。
package situation

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/behuman/moodrec/core"
)

// Situation 描述一种处境。
type Situation struct {
	ID          string   `yaml:"id" json:"id"`
	Beneficial  []string `yaml:"beneficial" json:"beneficial"`
	Avoid       []string `yaml:"avoid" json:"avoid"`
	Description string   `yaml:"description" json:"description"`
}

// Tags 返回处境展开后的标签：处境 ID 本身加上有益标签，已归一化去重。
func (s Situation) Tags() []string {
	return core.NormalizeTags(append([]string{s.ID}, s.Beneficial...))
}

// KnowledgeBase 是只读的处境表，可并发读取。
type KnowledgeBase struct {
	byID map[string]Situation
}

// New 用给定处境构建知识库，ID 为空或重复时返回 CONFIG 错误。
func New(situations ...Situation) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{byID: make(map[string]Situation, len(situations))}
	for i, s := range situations {
		id := core.NormalizeTag(s.ID)
		if id == "" {
			return nil, core.NewConfigError(core.ModuleCatalog, "situation %d has no id", i)
		}
		if _, dup := kb.byID[id]; dup {
			return nil, core.NewConfigError(core.ModuleCatalog, "duplicate situation %q", id)
		}
		s.ID = id
		s.Beneficial = core.NormalizeTags(s.Beneficial)
		s.Avoid = core.NormalizeTags(s.Avoid)
		kb.byID[id] = s
	}
	return kb, nil
}

// Default 返回内置知识库。
func Default() *KnowledgeBase {
	kb, err := New(defaults()...)
	if err != nil {
		panic(err)
	}
	return kb
}

// Get 按 ID 查找处境，ID 大小写不敏感。
func (kb *KnowledgeBase) Get(id string) (Situation, bool) {
	s, ok := kb.byID[core.NormalizeTag(id)]
	return s, ok
}

// Expand 返回处境标签与回避标签，未知处境两者都为空。
func (kb *KnowledgeBase) Expand(id string) (tags, avoid []string) {
	s, ok := kb.Get(id)
	if !ok {
		return nil, nil
	}
	return s.Tags(), s.Avoid
}

// IDs 返回全部处境 ID，升序。
func (kb *KnowledgeBase) IDs() []string {
	out := make([]string, 0, len(kb.byID))
	for id := range kb.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type document struct {
	Situations []Situation `yaml:"situations"`
}

// LoadYAML 从 YAML 读取知识库：
//
//	situations:
//	  - id: ansiedad
//	    beneficial: [mindfulness, naturaleza]
//	    avoid: [multitudes]
func LoadYAML(r io.Reader) (*KnowledgeBase, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, core.NewConfigError(core.ModuleCatalog, "decode situations: %v", err)
	}
	return New(doc.Situations...)
}

// LoadFile 从文件读取知识库，path 为空时返回内置知识库。
func LoadFile(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open situations: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

func defaults() []Situation {
	return []Situation{
		{
			ID:          "perdida_familiar",
			Beneficial:  []string{"baja_estimulacion", "naturaleza", "social_suave", "mindfulness", "agua"},
			Avoid:       []string{"alta_estimulacion", "competitivo", "fiesta"},
			Description: "La pérdida requiere espacios de calma para procesar el duelo",
		},
		{
			ID:          "ruptura_amorosa",
			Beneficial:  []string{"ejercicio", "social", "expresion_artistica", "naturaleza", "agua"},
			Avoid:       []string{"romantico", "parejas"},
			Description: "El movimiento físico y las conexiones sociales ayudan a procesar",
		},
		{
			ID:          "ansiedad",
			Beneficial:  []string{"mindfulness", "ejercicio_suave", "naturaleza", "agua", "baja_estimulacion"},
			Avoid:       []string{"alta_estimulacion", "multitudes", "competitivo"},
			Description: "Actividades que calman el sistema nervioso son clave",
		},
		{
			ID:          "soledad",
			Beneficial:  []string{"social", "grupal", "club", "voluntariado"},
			Avoid:       []string{"individual", "solitario"},
			Description: "Construir conexiones a través de intereses compartidos",
		},
		{
			ID:          "estres_laboral",
			Beneficial:  []string{"desconexion", "naturaleza", "ejercicio", "spa", "agua"},
			Avoid:       []string{"alta_concentracion", "competitivo"},
			Description: "Desconexión activa del entorno laboral",
		},
		{
			ID:          "duelo",
			Beneficial:  []string{"baja_estimulacion", "naturaleza", "expresion_artistica", "social_suave"},
			Avoid:       []string{"alta_estimulacion", "fiestas"},
			Description: "Espacio para procesar y honrar la pérdida",
		},
	}
}
