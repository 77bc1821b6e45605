package schemas

import "github.com/mesh-intelligence/annostore/pkg/types"

// Built-in schema types. A bound spatial point contributes a required
// position to the annotation partition and optional root/supervoxel ids
// to the segmentation partition.
var builtinSchemas = []*types.FieldSchema{
	{
		SchemaType: "synapse",
		Fields: concatFields(
			boundPointFields("pre_pt"),
			boundPointFields("ctr_pt"),
			boundPointFields("post_pt"),
			[]types.FieldSpec{{Name: "size", Kind: types.KindFloat}},
		),
	},
	{
		SchemaType: "bound_tag",
		Fields: concatFields(
			boundPointFields("pt"),
			[]types.FieldSpec{{Name: "tag", Kind: types.KindString, Required: true}},
		),
	},
	{
		SchemaType: "cell_type_local",
		Fields: concatFields(
			boundPointFields("pt"),
			[]types.FieldSpec{
				{Name: "cell_type", Kind: types.KindString, Required: true},
				{Name: "classification_system", Kind: types.KindString, Required: true},
			},
		),
	},
	{
		SchemaType: "simple_reference",
		Reference:  true,
		Fields: []types.FieldSpec{
			{Name: "target_id", Kind: types.KindInt, Required: true},
		},
	},
}

// boundPointFields returns the flattened fields a bound spatial point
// named prefix contributes.
func boundPointFields(prefix string) []types.FieldSpec {
	return []types.FieldSpec{
		{Name: prefix + "_position", Kind: types.KindPoint, Required: true},
		{Name: prefix + "_root_id", Kind: types.KindInt, Segmentation: true},
		{Name: prefix + "_supervoxel_id", Kind: types.KindInt, Segmentation: true},
	}
}

func concatFields(groups ...[]types.FieldSpec) []types.FieldSpec {
	var out []types.FieldSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
