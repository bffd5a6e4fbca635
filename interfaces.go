package mathverify

import (
	"github.com/datar-psa/mathverify/api"
)

type Generator = api.Generator

type AnswerKind = api.AnswerKind
type NormalizedValue = api.NormalizedValue
type Extraction = api.Extraction
type Comparison = api.Comparison
type Verification = api.Verification
