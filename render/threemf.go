package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ThreeMFPart is a single named mesh within a 3MF package.
type ThreeMFPart struct {
	Name  string
	Color string // sRGB hex, e.g. "#D0D0D0"
	Mesh  *Mesh
}

// Create3MF writes the parts to path as a 3MF package. Part order is
// preserved in the model resources and build items.
func Create3MF(path string, parts ...ThreeMFPart) error {
	if len(parts) == 0 {
		return errors.New("no parts to write")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := Write3MF(file, parts...); err != nil {
		return errors.Wrap(err, "write 3mf package")
	}
	return nil
}

// Write3MF writes a 3MF package to w.
func Write3MF(w io.Writer, parts ...ThreeMFPart) error {
	zw := zip.NewWriter(w)

	ct, err := zw.Create("[Content_Types].xml")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(ct, threeMFContentTypes); err != nil {
		return err
	}

	rels, err := zw.Create("_rels/.rels")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(rels, threeMFRels); err != nil {
		return err
	}

	model, err := zw.Create("3D/3dmodel.model")
	if err != nil {
		return err
	}
	if err := writeModelXML(model, parts); err != nil {
		return err
	}
	return zw.Close()
}

const threeMFContentTypes = xml.Header +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="model" ContentType="application/vnd.ms-package.3dmanufacturing-3dmodel+xml"/>` +
	`</Types>`

const threeMFRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Target="/3D/3dmodel.model" Id="rel-1" ` +
	`Type="http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"/>` +
	`</Relationships>`

type modelXML struct {
	XMLName   xml.Name      `xml:"model"`
	Unit      string        `xml:"unit,attr"`
	Lang      string        `xml:"xml:lang,attr"`
	Namespace string        `xml:"xmlns,attr"`
	MatNS     string        `xml:"xmlns:m,attr"`
	Resources resourcesXML  `xml:"resources"`
	Build     buildXML      `xml:"build"`
}

type resourcesXML struct {
	ColorGroups []colorGroupXML `xml:"m:colorgroup"`
	Objects     []objectXML     `xml:"object"`
}

type colorGroupXML struct {
	ID     int        `xml:"id,attr"`
	Colors []colorXML `xml:"m:color"`
}

type colorXML struct {
	Color string `xml:"color,attr"`
}

type objectXML struct {
	ID     int     `xml:"id,attr"`
	Name   string  `xml:"name,attr"`
	Type   string  `xml:"type,attr"`
	PID    int     `xml:"pid,attr,omitempty"`
	PIndex int     `xml:"pindex,attr"`
	Mesh   meshXML `xml:"mesh"`
}

type meshXML struct {
	Vertices  []vertexXML   `xml:"vertices>vertex"`
	Triangles []triangleXML `xml:"triangles>triangle"`
}

type vertexXML struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
	Z string `xml:"z,attr"`
}

type triangleXML struct {
	V1 int `xml:"v1,attr"`
	V2 int `xml:"v2,attr"`
	V3 int `xml:"v3,attr"`
}

func writeModelXML(w io.Writer, parts []ThreeMFPart) error {
	model := modelXML{
		Unit:      "millimeter",
		Lang:      "en-US",
		Namespace: "http://schemas.microsoft.com/3dmanufacturing/core/2015/02",
		MatNS:     "http://schemas.microsoft.com/3dmanufacturing/material/2015/02",
	}
	// One color group shared by all parts; objects select by pindex.
	group := colorGroupXML{ID: 1}
	for _, p := range parts {
		color := p.Color
		if color == "" {
			color = "#D0D0D0"
		}
		group.Colors = append(group.Colors, colorXML{Color: strings.ToUpper(color)})
	}
	model.Resources.ColorGroups = []colorGroupXML{group}

	for i, p := range parts {
		id := i + 2 // id 1 is the color group
		obj := objectXML{
			ID:     id,
			Name:   p.Name,
			Type:   "model",
			PID:    1,
			PIndex: i,
		}
		for _, v := range p.Mesh.Vertices {
			obj.Mesh.Vertices = append(obj.Mesh.Vertices, vertexXML{
				X: trimFloat(v.X),
				Y: trimFloat(v.Y),
				Z: trimFloat(v.Z),
			})
		}
		for _, f := range p.Mesh.Faces {
			obj.Mesh.Triangles = append(obj.Mesh.Triangles, triangleXML{V1: f[0], V2: f[1], V3: f[2]})
		}
		model.Resources.Objects = append(model.Resources.Objects, obj)
		model.Build.Items = append(model.Build.Items, itemXML{ObjectID: id})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if err := enc.Encode(model); err != nil {
		return err
	}
	return enc.Flush()
}

type buildXML struct {
	Items []itemXML `xml:"item"`
}

type itemXML struct {
	ObjectID int `xml:"objectid,attr"`
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.6f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
