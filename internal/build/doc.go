// Package build runs the external packager that turns one source file into
// one native executable.
//
// The packager command is a template with four named slots:
//
//	{source_file}   absolute, slash-normalized path of the source file
//	{output_dir}    absolute, slash-normalized artifact directory
//	{temp_dir}      absolute, slash-normalized per-build scratch directory
//	{program_name}  base name of the artifact
//
// The template is split into arguments once, before substitution, so a
// slot value is always exactly one argument no matter what spaces or
// quotes it contains. No shell is involved.
//
// Every build runs in a fresh temporary directory that is removed
// afterwards, so concurrent builds of different programs never share
// intermediate files. A build that outlives its timeout is killed together
// with every process it started.
package build
