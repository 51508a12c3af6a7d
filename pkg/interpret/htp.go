// Package interpret implements the deterministic rule engines that map
// spatial descriptors to clinical-style interpretation statements, plus the
// PITR stress scorer.
//
// Rules are table-driven and evaluated in a fixed declared order so the
// output ordering and the threshold constants stay auditable. Position rules
// run before size rules; within each group the object priority is fixed.
package interpret

import "github.com/memorygarden/drawing-analyzer/pkg/types"

// htpLabelMap normalizes detector class names onto the three canonical
// House-Tree-Person objects. The htp model emits Korean whole-object classes.
var htpLabelMap = map[string]string{
	"사람전체": "person",
	"집전체":  "house",
	"나무전체": "tree",
	"person": "person",
	"house":  "house",
	"home":   "house",
	"tree":   "tree",
}

// HouseTreePersonFeatures holds the per-object descriptors an HTP rule can
// inspect. A nil field means the object was not detected; its rules are
// skipped, never treated as an error.
type HouseTreePersonFeatures struct {
	House  *types.SpatialDescriptor
	Tree   *types.SpatialDescriptor
	Person *types.SpatialDescriptor
}

// NewHouseTreePersonFeatures builds typed features from a descriptor map,
// normalizing labels through the HTP class table.
func NewHouseTreePersonFeatures(descriptors map[string]types.SpatialDescriptor) HouseTreePersonFeatures {
	var f HouseTreePersonFeatures
	for label, desc := range descriptors {
		canonical, ok := htpLabelMap[label]
		if !ok {
			continue
		}
		d := desc
		switch canonical {
		case "house":
			f.House = &d
		case "tree":
			f.Tree = &d
		case "person":
			f.Person = &d
		}
	}
	return f
}

type htpRule struct {
	applies   func(f HouseTreePersonFeatures) bool
	statement string
}

func isLeft(d *types.SpatialDescriptor) bool {
	return d != nil && d.Horizontal == types.HorizLeft
}

func isRight(d *types.SpatialDescriptor) bool {
	return d != nil && d.Horizontal == types.HorizRight
}

// countVertical counts how many of the three objects sit in the given band.
func (f HouseTreePersonFeatures) countVertical(v types.Vertical) int {
	n := 0
	for _, d := range []*types.SpatialDescriptor{f.House, f.Tree, f.Person} {
		if d != nil && d.Vertical == v {
			n++
		}
	}
	return n
}

// Position rules first (house, tree, person, then the up/down majority vote
// across 2+ of the 3 objects), then size rules (house, person, tree).
//
// The high-end size cut is 0.67 for house and person but 0.9 for tree. The
// asymmetry is a deliberate domain rule from the HTP literature; do not
// unify the constants.
var htpRules = []htpRule{
	{func(f HouseTreePersonFeatures) bool { return isLeft(f.House) },
		"내향적 열등감을 가지고 있다."},
	{func(f HouseTreePersonFeatures) bool { return !isLeft(f.House) && isRight(f.House) },
		"외향적 활동성을 가지고 있다."},

	{func(f HouseTreePersonFeatures) bool { return isLeft(f.Tree) },
		"자의식이 강하고 부끄러움이 많아 내향적인 성격으로 과거로 퇴행하는 경향이 있다."},
	{func(f HouseTreePersonFeatures) bool { return !isLeft(f.Tree) && isRight(f.Tree) },
		"직접만족을 강조하며 부정적 사고와 적개심을 가지는 경향이 있다."},

	{func(f HouseTreePersonFeatures) bool { return isLeft(f.Person) },
		"소극적이며 우울감을 가지고 있다."},
	{func(f HouseTreePersonFeatures) bool { return !isLeft(f.Person) && isRight(f.Person) },
		"이기적이며 공격적이고 분노가 높다."},

	{func(f HouseTreePersonFeatures) bool { return f.countVertical(types.VertUp) >= 2 },
		"동물력이 부족하고 이치에 맞지 않는 낙천주의를 가지고 있다."},
	{func(f HouseTreePersonFeatures) bool {
		return f.countVertical(types.VertUp) < 2 && f.countVertical(types.VertDown) >= 2
	},
		"인간감을 가지지만 우울하고 위축되어 있으며 패배감이 크다."},

	{func(f HouseTreePersonFeatures) bool { return f.House != nil && f.House.RelativeArea <= 0.33 },
		"열등감, 무능력감을 가지고 있고 소심하며, 자아강도가 낮다."},
	{func(f HouseTreePersonFeatures) bool { return f.House != nil && f.House.RelativeArea > 0.67 },
		"과장되고 공격적이며 보상적 방어의 감정을 가지고 과잉행동을 하는 경향이 있다."},

	{func(f HouseTreePersonFeatures) bool { return f.Person != nil && f.Person.RelativeArea <= 0.33 },
		"수축된 자아를 가지고 있고 환경을 다루는데 있어서 부적절하며 낮은 에너지 수준을 가진다."},
	{func(f HouseTreePersonFeatures) bool { return f.Person != nil && f.Person.RelativeArea > 0.67 },
		"자기를 증명하려고 노력하는 경향이 있다."},

	{func(f HouseTreePersonFeatures) bool { return f.Tree != nil && f.Tree.RelativeArea <= 0.33 },
		"자신에 대해 열등감을 가지고 있고 무력감을 느끼고 있다."},
	{func(f HouseTreePersonFeatures) bool {
		return f.Tree != nil && f.Tree.RelativeArea > 0.33 && f.Tree.RelativeArea < 0.9
	},
		"자기확대의 욕구를 가지며 공상보다는 현실적인 활동에서 만족을 얻으려 한다."},
	{func(f HouseTreePersonFeatures) bool { return f.Tree != nil && f.Tree.RelativeArea >= 0.9 },
		"통찰력이 부족하고 생활공간으로부터의 일탈과 회의를 느낀다."},
}

// RunHTP evaluates the House-Tree-Person rule table against the descriptors.
// Multiple rules may fire; statements accumulate in evaluation order. Zero
// descriptors yield an empty list, which the pipeline treats as "no
// rule-based signal", not as a failure.
func RunHTP(descriptors map[string]types.SpatialDescriptor) types.RuleInterpretation {
	features := NewHouseTreePersonFeatures(descriptors)

	var statements []string
	for _, rule := range htpRules {
		if rule.applies(features) {
			statements = append(statements, rule.statement)
		}
	}

	return types.RuleInterpretation{
		Method:          "htp_interpreter",
		Status:          StatusSuccess,
		Interpretations: statements,
	}
}
