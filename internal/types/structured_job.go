package types

// StructuredJob is the six-field extraction of a job posting.
type StructuredJob struct {
	JobTitle     string `json:"求人票名"`
	Role         string `json:"役割"`
	Process      string `json:"業務プロセス"`
	Product      string `json:"対象製品"`
	Stakeholders string `json:"ステークホルダー"`
	Technologies string `json:"使用技術"`
}

// Get returns the value of a canonical item, or "" for unknown items.
func (j *StructuredJob) Get(item string) string {
	switch item {
	case ItemJobTitle:
		return j.JobTitle
	case ItemRole:
		return j.Role
	case ItemProcess:
		return j.Process
	case ItemProduct:
		return j.Product
	case ItemStakeholders:
		return j.Stakeholders
	case ItemTechnologies:
		return j.Technologies
	}
	return ""
}

// Set assigns the value of a canonical item. Unknown items are ignored.
func (j *StructuredJob) Set(item, value string) {
	switch item {
	case ItemJobTitle:
		j.JobTitle = value
	case ItemRole:
		j.Role = value
	case ItemProcess:
		j.Process = value
	case ItemProduct:
		j.Product = value
	case ItemStakeholders:
		j.Stakeholders = value
	case ItemTechnologies:
		j.Technologies = value
	}
}

// AsMap returns the six fields keyed by item label.
func (j *StructuredJob) AsMap() map[string]string {
	m := make(map[string]string, 6)
	for _, item := range CanonicalItems() {
		m[item] = j.Get(item)
	}
	return m
}
