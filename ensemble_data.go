/*
File: ensemble_data.go
Description: Built-in model snapshot. Hand-calibrated development weights
             that ship with the engine so it scores out of the box; a
             production snapshot trained offline replaces it via the
             snapshot_file config key.
*/

package urlguard

func leaf(p float64) *TreeNode {
	return &TreeNode{Leaf: &p}
}

func split(feature string, threshold float64, left, right *TreeNode) *TreeNode {
	return &TreeNode{Feature: feature, Threshold: threshold, Left: left, Right: right}
}

// builtinSnapshot returns the embedded development snapshot. The four
// families share one signal vocabulary but disagree in shape: the linear
// models grade smoothly, the trees fire on indicator combinations, the
// stumps on single indicators. That disagreement is what makes the
// variance check meaningful.
func builtinSnapshot() *ModelSnapshot {
	linear := map[string]float64{
		"url_length":              0.004,
		"host_length":             0.008,
		"token_count":             0.02,
		"digit_ratio":             0.8,
		"hyphen_count":            0.18,
		"underscore_count":        0.10,
		"subdomain_depth":         0.35,
		"path_depth":              0.03,
		"query_param_count":       0.03,
		"has_userinfo":            1.6,
		"suspicious_char_density": 1.5,
		"percent_encoding_count":  0.08,
		"url_entropy":             0.25,
		"host_entropy":            0.30,
		"brand_keyword":           2.3,
		"security_keyword":        0.9,
		"suspicious_tld":          2.4,
		"url_shortener":           3.0,
		"homograph":               2.2,
		"ip_literal":              1.8,
		"non_std_port":            0.7,
		"is_https":                -0.5,
		"scheme_risk":             1.2,
		"data_payload_kb":         0.02,
		"known_safe_domain":       -2.5,
		"has_dns_record":          -0.8,
		"ns_count":                -0.05,
		"mx_present":              -0.3,
		"ip_reputation":           3.5,
		"tls_present":             -0.6,
		"cert_valid":              -0.8,
		"cert_days_remaining":     -0.002,
		"self_signed":             1.2,
		"hostname_match":          -0.6,
		"login_form":              1.2,
		"password_inputs":         0.4,
		"external_form_action":    1.8,
		"script_obfuscation":      1.5,
		"iframe_count":            0.15,
		"meta_refresh":            0.8,
		"right_click_disabled":    1.0,
		"external_resource_ratio": 0.5,
	}

	marginWeights := make(map[string]float64, len(linear))
	for name, w := range linear {
		marginWeights[name] = w * 0.8
	}

	return &ModelSnapshot{
		SchemaVersion: FeatureSchemaVersion,
		Logit: &LogitParams{
			Bias:    -3.0,
			Weights: linear,
		},
		Margin: &MarginParams{
			Bias:    -2.4,
			Weights: marginWeights,
			PlattA:  -1.7,
			PlattB:  0,
		},
		Boost: &BoostParams{
			Bias: -2.2,
			Stumps: []Stump{
				{Feature: "brand_keyword", Threshold: 0.5, Above: 2.4},
				{Feature: "suspicious_tld", Threshold: 0.5, Above: 2.4},
				{Feature: "url_shortener", Threshold: 0.5, Above: 2.7},
				{Feature: "homograph", Threshold: 0.5, Above: 2.2},
				{Feature: "ip_literal", Threshold: 0.5, Above: 1.9},
				{Feature: "security_keyword", Threshold: 0.5, Above: 0.8},
				{Feature: "security_keyword", Threshold: 1.5, Above: 0.6},
				{Feature: "hyphen_count", Threshold: 1.5, Above: 0.5},
				{Feature: "subdomain_depth", Threshold: 2.5, Above: 0.9},
				{Feature: "has_userinfo", Threshold: 0.5, Above: 1.5},
				{Feature: "is_https", Threshold: 0.5, Above: -0.3, Below: 0.5},
				{Feature: "known_safe_domain", Threshold: 0.5, Above: -2.0},
				{Feature: "ip_reputation", Threshold: 0.5, Above: 3.0},
				{Feature: "login_form", Threshold: 0.5, Above: 1.0},
				{Feature: "external_form_action", Threshold: 0.5, Above: 1.6},
				{Feature: "script_obfuscation", Threshold: 0.4, Above: 1.2},
			},
		},
		Forest: &ForestParams{
			Trees: []*TreeNode{
				split("suspicious_tld", 0.5,
					split("brand_keyword", 0.5, leaf(0.08), leaf(0.75)),
					split("brand_keyword", 0.5, leaf(0.82), leaf(0.97))),
				split("url_shortener", 0.5,
					split("ip_literal", 0.5,
						split("homograph", 0.5, leaf(0.07), leaf(0.80)),
						leaf(0.76)),
					leaf(0.58)),
				split("security_keyword", 1.5,
					split("subdomain_depth", 2.5, leaf(0.10), leaf(0.62)),
					split("hyphen_count", 1.5, leaf(0.70), leaf(0.90))),
				split("known_safe_domain", 0.5,
					split("host_entropy", 3.9,
						split("digit_ratio", 0.3, leaf(0.12), leaf(0.55)),
						leaf(0.65)),
					leaf(0.02)),
			},
		},
	}
}
