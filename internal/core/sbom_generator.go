package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/spdx/v2/common"
	spdx23 "github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/gg7/gentoostats/internal/purl"
	"github.com/gg7/gentoostats/internal/sbom"
	"github.com/gg7/gentoostats/internal/types"
	"github.com/gg7/gentoostats/internal/version"
)

// SBOMFormat represents supported SBOM output formats
type SBOMFormat string

const (
	// SBOMFormatCycloneDX is the CycloneDX 1.5 JSON format
	SBOMFormatCycloneDX SBOMFormat = "cyclonedx"
	// SBOMFormatSPDX is the SPDX 2.3 JSON format
	SBOMFormatSPDX SBOMFormat = "spdx"
)

// ParseSBOMFormat maps a --format value to an SBOMFormat.
func ParseSBOMFormat(s string) (SBOMFormat, error) {
	switch SBOMFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", SBOMFormatCycloneDX:
		return SBOMFormatCycloneDX, nil
	case SBOMFormatSPDX:
		return SBOMFormatSPDX, nil
	}
	return "", fmt.Errorf("unknown SBOM format %q (want cyclonedx or spdx)", s)
}

// Property names attached to SBOM components.
const (
	propRepository = "gentoostats:repository"
	propKeyword    = "gentoostats:keyword"
	propBuildTime  = "gentoostats:build_time"
	propSize       = "gentoostats:size"
	propUse        = "gentoostats:use"
	propSelected   = "gentoostats:selected"
)

// SBOMGenerator generates Software Bill of Materials from the PACKAGES
// section of a report, so policy redactions carry over.
type SBOMGenerator struct {
	documentName string
	now          func() time.Time
}

// NewSBOMGenerator creates a new SBOMGenerator. documentName is usually the
// host name.
func NewSBOMGenerator(documentName string) *SBOMGenerator {
	return &SBOMGenerator{
		documentName: sbom.ValidateDocumentName(documentName),
		now:          time.Now,
	}
}

// Generate creates an SBOM in the specified format
func (g *SBOMGenerator) Generate(report *types.Report, format SBOMFormat) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to export")
	}

	switch format {
	case SBOMFormatCycloneDX:
		return g.generateCycloneDX(report)
	case SBOMFormatSPDX:
		return g.generateSPDX(report)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// generateCycloneDX creates a CycloneDX 1.5 JSON SBOM
func (g *SBOMGenerator) generateCycloneDX(report *types.Report) ([]byte, error) {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Version = 1

	timestamp := g.now().UTC().Format(time.RFC3339)
	bom.Metadata = &cdx.Metadata{
		Timestamp: timestamp,
		Tools: &cdx.ToolsChoice{
			Tools: &[]cdx.Tool{
				{
					Vendor:  "gentoostats",
					Name:    "gentoostats",
					Version: version.GetVersion(),
				},
			},
		},
		Component: &cdx.Component{
			Type:    cdx.ComponentTypeOS,
			Name:    g.documentName,
			Version: envText(report, "PLATFORM"),
		},
	}

	keys := report.PackageKeys()
	selected := selectedPackages(report)
	components := make([]cdx.Component, 0, len(keys))
	for _, cpv := range keys {
		components = append(components, g.buildCycloneDXComponent(cpv, report.Packages[cpv], selected))
	}
	bom.Components = &components

	var buf strings.Builder
	encoder := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return nil, fmt.Errorf("encode CycloneDX: %w", err)
	}

	return []byte(buf.String()), nil
}

func (g *SBOMGenerator) buildCycloneDXComponent(cpv string, rec types.PackageRecord, selected map[string]bool) cdx.Component {
	repo := fieldText(rec.Repo)
	identity := sbom.PackageIdentity{CPV: cpv, Repo: repo}
	p := purl.FromCPVWithFallback(cpv, repo)

	component := cdx.Component{
		Type:       cdx.ComponentTypeLibrary,
		BOMRef:     sbom.GenerateBOMRef(identity),
		Name:       p.Name,
		Group:      p.Namespace,
		Version:    p.Version,
		PackageURL: p.String(),
	}

	if props := recordProperties(rec, selected[p.Namespace+"/"+p.Name]); len(props) > 0 {
		properties := make([]cdx.Property, 0, len(props))
		for _, kv := range props {
			properties = append(properties, cdx.Property{Name: kv[0], Value: kv[1]})
		}
		component.Properties = &properties
	}

	return component
}

// generateSPDX creates an SPDX 2.3 JSON SBOM
func (g *SBOMGenerator) generateSPDX(report *types.Report) ([]byte, error) {
	timestamp := g.now().UTC().Format(time.RFC3339)

	doc := &spdx23.Document{
		SPDXVersion:       spdx.Version,
		DataLicense:       spdx.DataLicense,
		SPDXIdentifier:    common.ElementID(sbom.SPDXDocumentID),
		DocumentName:      g.documentName + "-installed-packages",
		DocumentNamespace: sbom.BuildSPDXNamespace("", g.documentName, uuid.New().String()),
		CreationInfo: &spdx23.CreationInfo{
			Created: timestamp,
			Creators: []common.Creator{
				{CreatorType: "Tool", Creator: "gentoostats-" + version.GetVersion()},
			},
		},
	}

	keys := report.PackageKeys()
	selected := selectedPackages(report)
	packages := make([]*spdx23.Package, 0, len(keys))
	relationships := make([]*spdx23.Relationship, 0, len(keys))

	for _, cpv := range keys {
		rec := report.Packages[cpv]
		identity := sbom.PackageIdentity{CPV: cpv, Repo: fieldText(rec.Repo)}
		packages = append(packages, g.buildSPDXPackage(identity, rec, selected))

		// RefB must match the package's SPDXID exactly
		relationships = append(relationships, &spdx23.Relationship{
			RefA:         common.MakeDocElementID("", sbom.SPDXDocumentID),
			RefB:         common.MakeDocElementID("", sbom.GenerateSPDXID(identity)),
			Relationship: "DESCRIBES",
		})
	}

	doc.Packages = packages
	doc.Relationships = relationships

	return spdxToJSON(doc)
}

func (g *SBOMGenerator) buildSPDXPackage(identity sbom.PackageIdentity, rec types.PackageRecord, selected map[string]bool) *spdx23.Package {
	p := purl.FromCPVWithFallback(identity.CPV, identity.Repo)

	pkg := &spdx23.Package{
		PackageName:             p.Name,
		PackageSPDXIdentifier:   common.ElementID(sbom.GenerateSPDXID(identity)),
		PackageVersion:          p.Version,
		PackageDownloadLocation: "NOASSERTION",
		FilesAnalyzed:           false,
		PackageCopyrightText:    "NOASSERTION",
		PackageLicenseDeclared:  "NOASSERTION",
		PackageLicenseConcluded: "NOASSERTION",
		PackageExternalReferences: []*spdx23.PackageExternalReference{
			{
				Category: common.CategoryPackageManager,
				RefType:  "purl",
				Locator:  p.String(),
			},
		},
	}

	fields := make(map[string]string)
	for _, kv := range recordProperties(rec, selected[p.Namespace+"/"+p.Name]) {
		fields[strings.TrimPrefix(kv[0], "gentoostats:")] = kv[1]
	}
	pkg.PackageComment = sbom.MetadataComment(fields)

	return pkg
}

// selectedPackages returns the category/name of every atom listed directly in
// the report's package sets. Slot and repository suffixes are dropped.
func selectedPackages(report *types.Report) map[string]bool {
	selected := make(map[string]bool)
	for _, members := range report.SelectedSets {
		for _, atom := range FilterAtoms(members) {
			if i := strings.IndexByte(atom, ':'); i >= 0 {
				atom = atom[:i]
			}
			selected[atom] = true
		}
	}
	return selected
}

// recordProperties lists the included, known fields of rec as name/value
// pairs in a fixed order.
func recordProperties(rec types.PackageRecord, selected bool) [][2]string {
	var props [][2]string
	add := func(name, value string) {
		if value != "" {
			props = append(props, [2]string{name, value})
		}
	}

	add(propRepository, fieldText(rec.Repo))
	add(propKeyword, fieldText(rec.Keyword))
	if rec.BuildTime.Valid {
		add(propBuildTime, strconv.FormatInt(rec.BuildTime.Value, 10))
	}
	if rec.Size.Valid {
		add(propSize, strconv.FormatInt(rec.Size.Value, 10))
	}
	if rec.Use.Valid {
		add(propUse, strings.Join(rec.Use.Value, " "))
	}
	if selected {
		add(propSelected, "true")
	}
	return props
}

func fieldText(f types.Field[string]) string {
	if !f.Valid {
		return ""
	}
	return f.Value
}

func envText(report *types.Report, name string) string {
	v, ok := report.Env[name]
	if !ok || v.Kind != types.EnvText {
		return ""
	}
	return v.Text
}

// spdxJSON is the JSON representation of an SPDX document
// Using explicit struct to ensure proper JSON field names per SPDX 2.3
type spdxJSON struct {
	SPDXVersion       string                 `json:"spdxVersion"`
	DataLicense       string                 `json:"dataLicense"`
	SPDXID            string                 `json:"SPDXID"`
	Name              string                 `json:"name"`
	DocumentNamespace string                 `json:"documentNamespace"`
	CreationInfo      spdxCreationInfoJSON   `json:"creationInfo"`
	Packages          []spdxPackageJSON      `json:"packages"`
	Relationships     []spdxRelationshipJSON `json:"relationships"`
}

type spdxCreationInfoJSON struct {
	Created  string   `json:"created"`
	Creators []string `json:"creators"`
}

type spdxPackageJSON struct {
	SPDXID           string                `json:"SPDXID"`
	Name             string                `json:"name"`
	VersionInfo      string                `json:"versionInfo"`
	DownloadLocation string                `json:"downloadLocation"`
	LicenseDeclared  string                `json:"licenseDeclared"`
	LicenseConcluded string                `json:"licenseConcluded"`
	CopyrightText    string                `json:"copyrightText"`
	FilesAnalyzed    bool                  `json:"filesAnalyzed"`
	ExternalRefs     []spdxExternalRefJSON `json:"externalRefs,omitempty"`
	Comment          string                `json:"comment,omitempty"`
}

type spdxExternalRefJSON struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

type spdxRelationshipJSON struct {
	SPDXElementID      string `json:"spdxElementId"`
	RelationshipType   string `json:"relationshipType"`
	RelatedSPDXElement string `json:"relatedSpdxElement"`
}

// spdxToJSON converts an SPDX document to JSON bytes
func spdxToJSON(doc *spdx23.Document) ([]byte, error) {
	creators := make([]string, 0, len(doc.CreationInfo.Creators))
	for _, c := range doc.CreationInfo.Creators {
		creators = append(creators, fmt.Sprintf("%s: %s", c.CreatorType, c.Creator))
	}

	packages := make([]spdxPackageJSON, 0, len(doc.Packages))
	for _, pkg := range doc.Packages {
		p := spdxPackageJSON{
			SPDXID:           sbom.FormatSPDXRef(string(pkg.PackageSPDXIdentifier)),
			Name:             pkg.PackageName,
			VersionInfo:      pkg.PackageVersion,
			DownloadLocation: pkg.PackageDownloadLocation,
			LicenseDeclared:  pkg.PackageLicenseDeclared,
			LicenseConcluded: pkg.PackageLicenseConcluded,
			CopyrightText:    pkg.PackageCopyrightText,
			FilesAnalyzed:    pkg.FilesAnalyzed,
			Comment:          pkg.PackageComment,
		}

		if len(pkg.PackageExternalReferences) > 0 {
			refs := make([]spdxExternalRefJSON, 0, len(pkg.PackageExternalReferences))
			for _, ref := range pkg.PackageExternalReferences {
				refs = append(refs, spdxExternalRefJSON{
					ReferenceCategory: string(ref.Category),
					ReferenceType:     ref.RefType,
					ReferenceLocator:  ref.Locator,
				})
			}
			p.ExternalRefs = refs
		}

		packages = append(packages, p)
	}

	relationships := make([]spdxRelationshipJSON, 0, len(doc.Relationships))
	for _, rel := range doc.Relationships {
		relationships = append(relationships, spdxRelationshipJSON{
			SPDXElementID:      sbom.FormatSPDXRef(string(rel.RefA.ElementRefID)),
			RelationshipType:   rel.Relationship,
			RelatedSPDXElement: sbom.FormatSPDXRef(string(rel.RefB.ElementRefID)),
		})
	}

	jsonDoc := spdxJSON{
		SPDXVersion:       doc.SPDXVersion,
		DataLicense:       doc.DataLicense,
		SPDXID:            sbom.FormatSPDXRef(string(doc.SPDXIdentifier)),
		Name:              doc.DocumentName,
		DocumentNamespace: doc.DocumentNamespace,
		CreationInfo: spdxCreationInfoJSON{
			Created:  doc.CreationInfo.Created,
			Creators: creators,
		},
		Packages:      packages,
		Relationships: relationships,
	}

	return json.MarshalIndent(jsonDoc, "", "  ")
}
