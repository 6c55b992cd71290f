package services

import (
	"fmt"
	"strings"
)

// instructionTemplate is the fixed procedure every question is wrapped in.
// The step list and the Remember rules mirror the workflow the dashboard
// team validated by hand: roadmap first, then the table tool, then SQL
// execution, then a prose answer. The anti-fence rules look redundant but
// are load-bearing - a query wrapped in ``` fails on the warehouse and
// sends the agent into a retry loop that burns the iteration budget.
const instructionTemplate = `Use the following steps to answer this question about the '%s' dataset in the '%s' project:
%s

Steps:
1. Call the Data_Schema_Roadmap tool with "list tables" and identify the relevant table(s) for the question. You can also call it with "describe <table name>" for a table's fields.
2. After identifying the relevant table, select the matching table tool from the tool roster.
3. Ask the table tool one topic per call:
- a field name, for that field's derivation
- "structure", for the whole table structure
- "full_query", for the full SQL query that builds the table
- "clustering", for clustering information
- "partitioning", for partitioning information
- "grouping", for grouping information
- "source_table", for the upstream source table
- "time_periods", for the rolling time windows (if applicable)
4. Identify in the tool output the SQL query or queries used to create the data for the Looker Studio visualization.
5. Use the execute_sql tool to execute the query as described.
6. Analyze the results for relevant information.
7. Interpret the results and provide a natural language answer.

Remember:
- Always use proper %s syntax and table references.
- When formatting SQL queries, ensure that the syntax is correct and there are no extraneous characters.
- Do NOT add "` + "```sql" + `" before the query or "` + "```" + `" after. Instead, send the query directly.
- YOUR INPUT FOR THE execute_sql TOOL SHOULD NOT BE PRECEDED BY ` + "```sql OR ```" + ` AND SHOULD NOT END WITH ` + "```" + `. DOUBLE CHECK IT BEFORE SENDING.
- ATTEMPT TO REPLICATE THE ORIGINAL QUERY INSTEAD OF MAKING YOUR OWN. ONLY MAKE YOUR OWN IF YOU CANNOT QUERY EXACTLY AS IT IS DONE IN THE TOOL.
- If you need to modify the original query, make sure to preserve the essential structure and only change the necessary parts to answer the specific question.
- Always consider the partitioning, clustering, and grouping of the table when writing or modifying queries for optimal performance.`

// BuildInstructions renders the agent procedure around one user question.
// The question is embedded as-is; screening for hostile content happens
// before this point and the reasoning engine treats the whole text as data.
func BuildInstructions(dataset, project, dialect, question string) string {
	return fmt.Sprintf(instructionTemplate, dataset, project, strings.TrimSpace(question), dialect)
}
