package verify

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// vocDirs are the subdirectories a VOC dataset is recognized by.
var vocDirs = []string{"Annotations", "ImageSets", "JPEGImages", "SegmentationClass"}

const defaultAnnotationsDir = "annotations"

func registerBuiltins(c *Catalog) {
	c.checks["image_dir"] = checkImageDir
	c.checks["imagenet"] = checkImagenet
	c.checks["voc"] = checkVOC
	c.checks["yolo"] = checkYOLO
	c.checks["cvat"] = checkCVAT
	c.checks["coco"] = checkCOCO
	c.checks["datumaro"] = checkDatumaro
}

func requireDir(location string) error {
	if !fsutil.IsDir(location) {
		return fmt.Errorf("%s is not a directory", location)
	}
	return nil
}

func checkImageDir(_ context.Context, location string, _ map[string]any) error {
	if err := requireDir(location); err != nil {
		return err
	}
	files, err := fsutil.FindFilesByExtension(location, imageExtensions...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no images with extensions %s", ErrNoItems, strings.Join(imageExtensions, " "))
	}
	return nil
}

func checkImagenet(_ context.Context, location string, _ map[string]any) error {
	if err := requireDir(location); err != nil {
		return err
	}
	entries, err := os.ReadDir(location)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			return nil
		}
	}
	return fmt.Errorf("%w: no class subdirectories", ErrNoItems)
}

func checkVOC(_ context.Context, location string, _ map[string]any) error {
	if err := requireDir(location); err != nil {
		return err
	}
	for _, d := range vocDirs {
		if fsutil.IsDir(filepath.Join(location, d)) {
			return nil
		}
	}
	return fmt.Errorf("%w: expected one of %s", ErrNoItems, strings.Join(vocDirs, ", "))
}

func checkYOLO(_ context.Context, location string, _ map[string]any) error {
	if err := requireDir(location); err != nil {
		return err
	}
	info, err := os.Stat(filepath.Join(location, "obj.data"))
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: obj.data not found", ErrNoItems)
	}
	return nil
}

func checkCVAT(ctx context.Context, location string, _ map[string]any) error {
	files := []string{location}
	if fsutil.IsDir(location) {
		var err error
		files, err = fsutil.FindFilesByExtension(location, ".xml")
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("%w: no .xml files", ErrNoItems)
		}
	} else if !strings.EqualFold(filepath.Ext(location), ".xml") {
		return fmt.Errorf("%s is not an .xml file", location)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkXMLRoot(f, "annotations"); err != nil {
			return err
		}
	}
	return nil
}

// checkXMLRoot reads tokens until the first element and compares its name.
func checkXMLRoot(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty document", path)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != want {
				return fmt.Errorf("%s: root element is <%s>, expected <%s>", path, start.Name.Local, want)
			}
			return nil
		}
	}
}

func checkCOCO(ctx context.Context, location string, options map[string]any) error {
	if !fsutil.IsDir(location) {
		return validateJSONFiles(ctx, cocoSchema, []string{location})
	}
	files, err := annotationFiles(location, options)
	if err != nil {
		return err
	}
	return validateJSONFiles(ctx, cocoSchema, files)
}

func checkDatumaro(ctx context.Context, location string, options map[string]any) error {
	if err := requireDir(location); err != nil {
		return err
	}
	files, err := annotationFiles(location, options)
	if err != nil {
		return err
	}
	return validateJSONFiles(ctx, datumaroSchema, files)
}

// annotationFiles lists the .json files directly inside the annotations
// subdirectory, which the annotations_dir option can override.
func annotationFiles(location string, options map[string]any) ([]string, error) {
	sub, err := stringOption(options, "annotations_dir", defaultAnnotationsDir)
	if err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(location, sub, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .json files in %s", ErrNoItems, filepath.Join(location, sub))
	}
	return files, nil
}
