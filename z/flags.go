package z

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SuperFlag packs several options into a single command line flag, for
// example:
//
//	window=0.01; protected=0.8
//
// Keys are case-insensitive and underscores are treated as dashes. Getters
// return the zero value for options that are absent.
type SuperFlag struct {
	m map[string]string
}

func parseFlag(flag string) (map[string]string, error) {
	kvm := make(map[string]string)
	for _, kv := range strings.Split(flag, ";") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		splits := strings.SplitN(kv, "=", 2)
		if len(splits) != 2 {
			return nil, errors.Errorf("option %q is not of the form key=value", strings.TrimSpace(kv))
		}
		k := strings.TrimSpace(splits[0])
		k = strings.ToLower(k)
		k = strings.ReplaceAll(k, "_", "-")
		kvm[k] = strings.TrimSpace(splits[1])
	}
	return kvm, nil
}

// NewSuperFlag parses flag into a SuperFlag.
func NewSuperFlag(flag string) (*SuperFlag, error) {
	m, err := parseFlag(flag)
	if err != nil {
		return nil, err
	}
	return &SuperFlag{m: m}, nil
}

func (sf *SuperFlag) String() string {
	if sf == nil {
		return ""
	}
	kvs := make([]string, 0, len(sf.m))
	for k, v := range sf.m {
		kvs = append(kvs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(kvs)
	return strings.Join(kvs, "; ")
}

// MergeAndCheckDefault fills in every option of defaults that sf does not
// set. Options in sf that defaults does not know about are an error, which
// catches typos.
func (sf *SuperFlag) MergeAndCheckDefault(defaults string) error {
	src, err := parseFlag(defaults)
	if err != nil {
		return errors.Wrap(err, "invalid defaults")
	}
	var unknown []string
	for k := range sf.m {
		if _, ok := src[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) != 0 {
		sort.Strings(unknown)
		return errors.Errorf("found invalid options %v in %q, valid options: %s",
			unknown, sf.String(), defaults)
	}
	for k, v := range src {
		if _, ok := sf.m[k]; !ok {
			sf.m[k] = v
		}
	}
	return nil
}

func (sf *SuperFlag) Has(opt string) bool {
	return sf.GetString(opt) != ""
}

func (sf *SuperFlag) GetFloat64(opt string) (float64, error) {
	val := sf.GetString(opt)
	if val == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(err,
			"unable to parse %s as float64 for key: %s. Options: %s", val, opt, sf)
	}
	return f, nil
}

func (sf *SuperFlag) GetInt64(opt string) (int64, error) {
	val := sf.GetString(opt)
	if val == "" {
		return 0, nil
	}
	i, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err,
			"unable to parse %s as int64 for key: %s. Options: %s", val, opt, sf)
	}
	return i, nil
}

func (sf *SuperFlag) GetBool(opt string) (bool, error) {
	val := sf.GetString(opt)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.Wrapf(err,
			"unable to parse %s as bool for key: %s. Options: %s", val, opt, sf)
	}
	return b, nil
}

func (sf *SuperFlag) GetString(opt string) string {
	if sf == nil {
		return ""
	}
	return sf.m[opt]
}
